package domain

// TagGroupPrefix marca los grupos locales derivados de tags de DubClub,
// para distinguirlos de cualquier otro grupo que la aplicacion tenga.
const TagGroupPrefix = "dctag:"

// TagGroupName arma el nombre namespaced de grupo para un tag remoto.
func TagGroupName(tag string) string {
	return TagGroupPrefix + tag
}

// Group es un grupo de autorizacion local. Los grupos se aprovisionan por
// via administrativa: la reconciliacion nunca crea grupos faltantes.
type Group struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
