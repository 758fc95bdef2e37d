package service

// Messages returned in the error field of account envelopes.
const (
	MsgEmailTaken           = "There is a user with that email already"
	MsgLoginUserNotFound    = "User not found"
	MsgWrongPassword        = "Wrong Password"
	MsgUserNotFound         = "User Not Found"
	MsgVerificationNotFound = "Verification Not Found."

	msgCreateAccountFailed = "Could not create account."
	msgLoginFailed         = "Can't log user in."
	msgEditProfileFailed   = "Could not update profile."
	msgVerifyEmailFailed   = "Could not verify email."
	msgFindUserFailed      = "Could not load user."
)
