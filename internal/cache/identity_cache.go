package cache

import (
	"strconv"

	gocache "github.com/patrickmn/go-cache"

	"dubclub-auth/internal/domain"
)

// IdentityCache retiene los registros sombra cargados durante la vida del
// proceso. El perfil cacheado vive adentro de cada Identity; no se
// persiste nunca y se descarta con el proceso. Sin expiracion: la unica
// invalidacion es el restart.
type IdentityCache struct {
	items *gocache.Cache
}

func NewIdentityCache() *IdentityCache {
	return &IdentityCache{
		items: gocache.New(gocache.NoExpiration, 0),
	}
}

func (c *IdentityCache) Get(id int64) (*domain.Identity, bool) {
	value, ok := c.items.Get(strconv.FormatInt(id, 10))
	if !ok {
		return nil, false
	}
	identity, ok := value.(*domain.Identity)
	return identity, ok
}

func (c *IdentityCache) Put(identity *domain.Identity) {
	if identity == nil {
		return
	}
	c.items.Set(strconv.FormatInt(identity.ID, 10), identity, gocache.NoExpiration)
}
