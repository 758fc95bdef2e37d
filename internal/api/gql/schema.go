package gql

import (
	"fmt"

	"github.com/graphql-go/graphql"

	"github.com/spec-kit/eats-backend/internal/auth"
	"github.com/spec-kit/eats-backend/internal/domain"
)

// OperationRoles declares the roles allowed to call each top-level field.
// Fields missing from the table are public.
var OperationRoles = auth.Policy{
	"me":          {auth.RoleAny},
	"userProfile": {auth.RoleAny},
	"editProfile": {auth.RoleAny},
}

var userRoleEnum = graphql.NewEnum(graphql.EnumConfig{
	Name: "UserRole",
	Values: graphql.EnumValueConfigMap{
		string(domain.RoleClient):   &graphql.EnumValueConfig{Value: domain.RoleClient},
		string(domain.RoleOwner):    &graphql.EnumValueConfig{Value: domain.RoleOwner},
		string(domain.RoleDelivery): &graphql.EnumValueConfig{Value: domain.RoleDelivery},
	},
})

var userType = graphql.NewObject(graphql.ObjectConfig{
	Name: "User",
	Fields: graphql.Fields{
		"id":       &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"email":    &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"role":     &graphql.Field{Type: graphql.NewNonNull(userRoleEnum)},
		"verified": &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
	},
})

func coreFields() graphql.Fields {
	return graphql.Fields{
		"ok":    &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
		"error": &graphql.Field{Type: graphql.String},
	}
}

func outputType(name string, extra graphql.Fields) *graphql.Object {
	fields := coreFields()
	for k, v := range extra {
		fields[k] = v
	}
	return graphql.NewObject(graphql.ObjectConfig{Name: name, Fields: fields})
}

var (
	createAccountOutput = outputType("CreateAccountOutput", nil)
	editProfileOutput   = outputType("EditProfileOutput", nil)
	verifyEmailOutput   = outputType("VerifyEmailOutput", nil)
	loginOutput         = outputType("LoginOutput", graphql.Fields{
		"token": &graphql.Field{Type: graphql.String},
	})
	userProfileOutput = outputType("UserProfileOutput", graphql.Fields{
		"user": &graphql.Field{Type: userType},
	})
)

var (
	createAccountInput = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "CreateAccountInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"email":    &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"password": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"role":     &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(userRoleEnum)},
		},
	})
	loginInput = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "LoginInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"email":    &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"password": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		},
	})
	editProfileInput = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "EditProfileInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"email":    &graphql.InputObjectFieldConfig{Type: graphql.String},
			"password": &graphql.InputObjectFieldConfig{Type: graphql.String},
		},
	})
	verifyEmailInput = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "VerifyEmailInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"code": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		},
	})
)

func inputArg(t *graphql.InputObject) graphql.FieldConfigArgument {
	return graphql.FieldConfigArgument{
		"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(t)},
	}
}

// NewSchema builds the account schema. Top-level fields with declared roles
// pass the guard before their resolver runs.
func NewSchema(r *Resolver, guard *auth.Guard) (graphql.Schema, error) {
	query := graphql.Fields{
		"me": &graphql.Field{
			Type:    graphql.NewNonNull(userType),
			Resolve: r.Me,
		},
		"userProfile": &graphql.Field{
			Type: graphql.NewNonNull(userProfileOutput),
			Args: graphql.FieldConfigArgument{
				"userId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
			},
			Resolve: r.UserProfile,
		},
	}
	mutation := graphql.Fields{
		"createAccount": &graphql.Field{
			Type:    graphql.NewNonNull(createAccountOutput),
			Args:    inputArg(createAccountInput),
			Resolve: r.CreateAccount,
		},
		"login": &graphql.Field{
			Type:    graphql.NewNonNull(loginOutput),
			Args:    inputArg(loginInput),
			Resolve: r.Login,
		},
		"editProfile": &graphql.Field{
			Type:    graphql.NewNonNull(editProfileOutput),
			Args:    inputArg(editProfileInput),
			Resolve: r.EditProfile,
		},
		"verifyEmail": &graphql.Field{
			Type:    graphql.NewNonNull(verifyEmailOutput),
			Args:    inputArg(verifyEmailInput),
			Resolve: r.VerifyEmail,
		},
	}

	guardFields(guard, query)
	guardFields(guard, mutation)

	schema, err := graphql.NewSchema(graphql.SchemaConfig{
		Query:    graphql.NewObject(graphql.ObjectConfig{Name: "Query", Fields: query}),
		Mutation: graphql.NewObject(graphql.ObjectConfig{Name: "Mutation", Fields: mutation}),
	})
	if err != nil {
		return graphql.Schema{}, fmt.Errorf("build graphql schema: %w", err)
	}
	return schema, nil
}

// guardFields wraps the resolver of every field with declared roles; public
// fields keep their resolver as is.
func guardFields(guard *auth.Guard, fields graphql.Fields) {
	for name, field := range fields {
		if guard.Public(name) {
			continue
		}
		operation, resolve := name, field.Resolve
		field.Resolve = func(p graphql.ResolveParams) (interface{}, error) {
			if err := guard.Authorize(p.Context, operation); err != nil {
				return nil, err
			}
			return resolve(p)
		}
	}
}
