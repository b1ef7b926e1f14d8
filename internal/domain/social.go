package domain

import "time"

// SocialToken es la credencial opaca del subsistema de login social.
// El core solo la consulta por vigencia; la renovacion es problema ajeno.
type SocialToken struct {
	ID         int64
	IdentityID int64
	Token      string
	ExpiresAt  time.Time
}

// SocialApp es la configuracion local de la aplicacion OAuth del provider.
type SocialApp struct {
	ID       int64
	Provider string
	ClientID string
	Secret   string
	// Key existe solo para satisfacer una constraint not-null; este
	// provider no la usa.
	Key string
}
