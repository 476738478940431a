package models

// AuthResponse is returned by signup, login and refresh
type AuthResponse struct {
	ID           string `json:"id"` // UUID
	Email        string `json:"email"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// ProfileResponse is the authenticated user's identity
type ProfileResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}
