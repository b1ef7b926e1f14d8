package domain

import (
	"fmt"
	"sync"
)

// UsernamePrefix es el prefijo fijo para usernames derivados del subject claim.
const UsernamePrefix = "dcuser_"

// providerOwnedFields son los campos cuyo valor solo puede originarse en
// DubClub. Escrituras directas a estos campos se descartan en silencio:
// distintos flujos del subsistema de login intentan setearlos con valores
// viejos o sintetizados, y el proximo sync los pisaria de todas formas.
var providerOwnedFields = map[string]struct{}{
	"first_name":   {},
	"last_name":    {},
	"email":        {},
	"is_active":    {},
	"is_superuser": {},
	"is_staff":     {},
	"last_login":   {},
	"date_joined":  {},
	"password":     {},
}

// Identity es el registro sombra local de un usuario de DubClub.
// Solo id y username se persisten; el resto de los campos de perfil se
// proyectan desde el ultimo userinfo sincronizado y no se almacenan.
type Identity struct {
	ID       int64
	Username string

	mu      sync.RWMutex
	profile Profile
}

// NewIdentity construye un registro sombra con los dos unicos campos
// asignables: id y username.
func NewIdentity(id int64, username string) *Identity {
	return &Identity{ID: id, Username: username}
}

// SetField acepta sintacticamente cualquier escritura de campo pero solo
// aplica id y username, una unica vez cada uno. Todo campo propiedad del
// provider (y cualquier campo desconocido, por politica) es un no-op.
// Devuelve false cuando la escritura fue suprimida, para que el caller
// la registre a nivel debug.
func (i *Identity) SetField(name string, value any) bool {
	if _, owned := providerOwnedFields[name]; owned {
		return false
	}
	switch name {
	case "id":
		id, ok := value.(int64)
		if ok && i.ID == 0 {
			i.ID = id
			return true
		}
	case "username":
		username, ok := value.(string)
		if ok && i.Username == "" {
			i.Username = username
			return true
		}
	}
	return false
}

// Value proyecta una clave del perfil cacheado; nil si no hay cache o la
// clave no existe.
func (i *Identity) Value(key string) any {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.profile == nil {
		return nil
	}
	return i.profile[key]
}

func (i *Identity) stringValue(key string) string {
	s, _ := i.Value(key).(string)
	return s
}

func (i *Identity) boolValue(key string) bool {
	b, _ := i.Value(key).(bool)
	return b
}

func (i *Identity) FirstName() string { return i.stringValue("given_name") }
func (i *Identity) LastName() string  { return i.stringValue("family_name") }
func (i *Identity) Email() string     { return i.stringValue("email") }
func (i *Identity) IsActive() bool    { return i.boolValue("is_active") }
func (i *Identity) IsSuperuser() bool { return i.boolValue("is_superuser") }
func (i *Identity) IsStaff() bool     { return i.boolValue("is_staff") }
func (i *Identity) LastLogin() string { return i.stringValue("last_login") }
func (i *Identity) DateJoined() string {
	return i.stringValue("date_joined")
}

// Password siempre proyecta "sin credencial": esta identidad nunca se
// autentica con una credencial local.
func (i *Identity) Password() string { return "" }

// ReplaceProfile reemplaza la cache de perfil completa. Syncs concurrentes
// para la misma identidad aplican last-writer-wins: un lector ve el mapa
// viejo completo o el nuevo completo, nunca un estado intermedio.
func (i *Identity) ReplaceProfile(p Profile) {
	i.mu.Lock()
	i.profile = p
	i.mu.Unlock()
}

// Snapshot devuelve la cache actual (puede ser nil). El mapa devuelto es
// de solo lectura para el caller.
func (i *Identity) Snapshot() Profile {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.profile
}

// Loaded indica si el primer sync exitoso ya poblo la cache.
func (i *Identity) Loaded() bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.profile != nil
}

// Equal compara por id.
func (i *Identity) Equal(other *Identity) bool {
	return other != nil && i.ID == other.ID
}

// String distingue el estado cargado del no cargado, util para depurar
// sesiones con datos viejos.
func (i *Identity) String() string {
	if !i.Loaded() {
		return fmt.Sprintf("%s (unloaded)", i.Username)
	}
	return fmt.Sprintf("%s (loaded)", i.Username)
}
