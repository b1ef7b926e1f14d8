package domain

import (
	"errors"
	"fmt"
	"strconv"
)

// Profile es el userinfo crudo devuelto por el endpoint de perfil de DubClub.
// Se reemplaza completo en cada sync, nunca se mezcla campo por campo.
type Profile map[string]any

var ErrSubMissing = errors.New("profile sub claim missing")

// Sub devuelve el subject claim parseado como entero.
// El provider lo codifica como string ("42"), pero aceptamos tambien
// numeros JSON por robustez.
func (p Profile) Sub() (int64, error) {
	raw, ok := p["sub"]
	if !ok {
		return 0, ErrSubMissing
	}
	switch v := raw.(type) {
	case string:
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parse sub %q: %w", v, err)
		}
		return id, nil
	case float64:
		return int64(v), nil
	case int64:
		return v, nil
	default:
		return 0, fmt.Errorf("unexpected sub type %T", raw)
	}
}

// Tags devuelve la lista de tags remotos, vacia si el claim no viene.
func (p Profile) Tags() []string {
	raw, ok := p["tags"]
	if !ok {
		return nil
	}
	items, ok := raw.([]any)
	if !ok {
		// ya decodificado como []string (tests, fixtures)
		if tags, ok := raw.([]string); ok {
			return tags
		}
		return nil
	}
	tags := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			tags = append(tags, s)
		}
	}
	return tags
}

// IsActive devuelve el flag de actividad remoto, false si no viene.
func (p Profile) IsActive() bool {
	active, _ := p["is_active"].(bool)
	return active
}
