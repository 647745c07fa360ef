package registry

import (
	"github.com/sysdevguru/corpactions/service/corporateaction"
	"github.com/sysdevguru/corpactions/store"
)

type Registry interface {
	CorporateAction() corporateaction.CorporateActionService
}

type registry struct {
	store store.Store
}

func New(st store.Store) Registry {
	return &registry{store: st}
}

func (r *registry) CorporateAction() corporateaction.CorporateActionService {
	return corporateaction.Service(r.store)
}
