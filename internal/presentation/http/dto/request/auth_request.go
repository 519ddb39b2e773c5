package request

// StartSessionRequest hands the access token issued by the auth layer to
// the daemon
type StartSessionRequest struct {
	AccessToken string `json:"access_token" validate:"required"`
}
