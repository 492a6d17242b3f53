package services

import (
	"context"
	"log"
	"strconv"

	"visitor_access_go/models"
	"visitor_access_go/services/backend"
)

const (
	MsgLoadEntitiesFailed   = "Error al cargar las gerencias"
	MsgLoadUnitsFailed      = "Error al cargar las unidades administrativas"
	MsgUnitsEmpty           = "No se encontraron unidades administrativas"
	MsgLoadDirectionsFailed = "Error al cargar las direcciones"
	MsgLoadAreasFailed      = "Error al cargar las áreas"
)

// ReferenceSource is the backend surface used to fill the location selects
type ReferenceSource interface {
	Entities(ctx context.Context) ([]models.Option, error)
	AdministrativeUnits(ctx context.Context, entityID int64) ([]models.Option, error)
	Directions(ctx context.Context, unitID int64) ([]models.Option, error)
	Areas(ctx context.Context, parentID int64, parent backend.AreaParent) ([]models.Option, error)
}

// ReferenceLoader fills the entity → unit → direction → area chain of a
// session's wizard. Every selection clears its descendants in the same
// store update that records it; the fetch runs outside the update and its
// result is applied only if the selection it was made for is still current.
type ReferenceLoader struct {
	api   ReferenceSource
	store SessionStore
}

func NewReferenceLoader(api ReferenceSource, store SessionStore) *ReferenceLoader {
	return &ReferenceLoader{api: api, store: store}
}

type optionsFetch func(ctx context.Context) ([]models.Option, error)

// commitFunc applies a finished fetch; it returns false when the response
// is stale and was discarded.
type commitFunc func(w *models.WizardState, opts []models.Option, err error) bool

func (l *ReferenceLoader) update(ctx context.Context, sid string, fn func(w *models.WizardState)) (*models.Session, error) {
	return l.store.Update(ctx, sid, func(s *models.Session) error {
		fn(&s.Wizard)
		return nil
	})
}

// fetchAndCommit runs one retrieval. PendingLoads must already have been
// incremented by the caller's selection update.
func (l *ReferenceLoader) fetchAndCommit(ctx context.Context, sid, what string, fetch optionsFetch, commit commitFunc) (*models.Session, error) {
	opts, fetchErr := fetch(ctx)
	if fetchErr != nil {
		log.Printf("[WARNING] Loading %s failed: %v", what, fetchErr)
	}

	return l.update(ctx, sid, func(w *models.WizardState) {
		if w.PendingLoads > 0 {
			w.PendingLoads--
		}
		if !commit(w, opts, fetchErr) {
			log.Printf("[INFO] Discarded stale %s response", what)
		}
	})
}

// LoadEntities fetches the entity list once per wizard; later calls reuse
// the cached list.
func (l *ReferenceLoader) LoadEntities(ctx context.Context, sid string) (*models.Session, error) {
	sess, err := l.store.Get(ctx, sid)
	if err != nil {
		return nil, err
	}
	if len(sess.Wizard.Entities) > 0 {
		return sess, nil
	}

	if _, err := l.update(ctx, sid, func(w *models.WizardState) { w.PendingLoads++ }); err != nil {
		return nil, err
	}
	return l.fetchAndCommit(ctx, sid, "entities", l.api.Entities,
		func(w *models.WizardState, opts []models.Option, err error) bool {
			if err != nil {
				w.Entities = nil
				w.Notify(models.NotifyError, MsgLoadEntitiesFailed)
				return true
			}
			w.Entities = opts
			return true
		})
}

// SelectEntity records the entity, clears unit, direction and area, and
// loads the units of the new entity.
func (l *ReferenceLoader) SelectEntity(ctx context.Context, sid, value string) (*models.Session, error) {
	id, hasID := parseSelection(value)

	sess, err := l.update(ctx, sid, func(w *models.WizardState) {
		w.Values.Set(models.FieldEntityID, value)
		w.Values.Set(models.FieldEntityName, models.OptionName(w.Entities, id))
		clearUnit(w)
		w.ClearFieldErrors(models.FieldEntityID)
		if hasID {
			w.PendingLoads++
		}
	})
	if err != nil || !hasID {
		return sess, err
	}

	fetch := func(ctx context.Context) ([]models.Option, error) {
		return l.api.AdministrativeUnits(ctx, id)
	}
	return l.fetchAndCommit(ctx, sid, "administrative units", fetch,
		func(w *models.WizardState, opts []models.Option, err error) bool {
			if w.Values.Get(models.FieldEntityID) != value {
				return false
			}
			switch {
			case err != nil:
				w.AdministrativeUnits = nil
				w.Notify(models.NotifyError, MsgLoadUnitsFailed)
				w.SetFieldError(models.FieldAdministrativeUnitID, MsgLoadUnitsFailed)
			case len(opts) == 0:
				w.AdministrativeUnits = nil
				w.SetFieldError(models.FieldAdministrativeUnitID, MsgUnitsEmpty)
			default:
				w.AdministrativeUnits = opts
				w.ClearFieldErrors(models.FieldAdministrativeUnitID)
			}
			return true
		})
}

// SelectUnit records the unit, clears direction and area, and loads the
// unit's directions and areas.
func (l *ReferenceLoader) SelectUnit(ctx context.Context, sid, value string) (*models.Session, error) {
	id, hasID := parseSelection(value)

	sess, err := l.update(ctx, sid, func(w *models.WizardState) {
		w.Values.Set(models.FieldAdministrativeUnitID, value)
		w.Values.Set(models.FieldAdministrativeUnitName, models.OptionName(w.AdministrativeUnits, id))
		clearDirection(w)
		w.ClearFieldErrors(models.FieldAdministrativeUnitID)
		if hasID {
			w.PendingLoads += 2
		}
	})
	if err != nil || !hasID {
		return sess, err
	}

	fetchDirections := func(ctx context.Context) ([]models.Option, error) {
		return l.api.Directions(ctx, id)
	}
	if _, err := l.fetchAndCommit(ctx, sid, "directions", fetchDirections,
		func(w *models.WizardState, opts []models.Option, err error) bool {
			if w.Values.Get(models.FieldAdministrativeUnitID) != value {
				return false
			}
			if err != nil {
				w.Directions = nil
				w.Notify(models.NotifyError, MsgLoadDirectionsFailed)
				return true
			}
			w.Directions = opts
			return true
		}); err != nil {
		return nil, err
	}

	return l.loadAreas(ctx, sid, id, backend.AreaParentUnit, value, "")
}

// SelectDirection records the direction, clears the area, and reloads the
// areas under the direction (or under the unit when the direction is
// cleared).
func (l *ReferenceLoader) SelectDirection(ctx context.Context, sid, value string) (*models.Session, error) {
	id, hasID := parseSelection(value)
	var unitValue string
	var unitID int64
	var hasUnit bool

	sess, err := l.update(ctx, sid, func(w *models.WizardState) {
		w.Values.Set(models.FieldDirectionID, value)
		w.Values.Set(models.FieldDirectionName, models.OptionName(w.Directions, id))
		clearArea(w)
		unitValue = w.Values.Get(models.FieldAdministrativeUnitID)
		unitID, hasUnit = parseSelection(unitValue)
		if hasID || hasUnit {
			w.PendingLoads++
		}
	})
	if err != nil {
		return nil, err
	}

	switch {
	case hasID:
		return l.loadAreas(ctx, sid, id, backend.AreaParentDirection, unitValue, value)
	case hasUnit:
		return l.loadAreas(ctx, sid, unitID, backend.AreaParentUnit, unitValue, "")
	default:
		return sess, nil
	}
}

// SelectArea records the area; areas have no children.
func (l *ReferenceLoader) SelectArea(ctx context.Context, sid, value string) (*models.Session, error) {
	id, _ := parseSelection(value)
	return l.update(ctx, sid, func(w *models.WizardState) {
		w.Values.Set(models.FieldAreaID, value)
		w.Values.Set(models.FieldAreaName, models.OptionName(w.Areas, id))
	})
}

// loadAreas fetches areas for parentID. The response is kept only while
// the unit and direction selections still match the ones it was made for.
func (l *ReferenceLoader) loadAreas(ctx context.Context, sid string, parentID int64, parent backend.AreaParent, unitValue, directionValue string) (*models.Session, error) {
	fetch := func(ctx context.Context) ([]models.Option, error) {
		return l.api.Areas(ctx, parentID, parent)
	}
	return l.fetchAndCommit(ctx, sid, "areas", fetch,
		func(w *models.WizardState, opts []models.Option, err error) bool {
			if w.Values.Get(models.FieldAdministrativeUnitID) != unitValue ||
				w.Values.Get(models.FieldDirectionID) != directionValue {
				return false
			}
			if err != nil {
				w.Areas = nil
				w.Notify(models.NotifyError, MsgLoadAreasFailed)
				return true
			}
			w.Areas = opts
			return true
		})
}

func clearUnit(w *models.WizardState) {
	w.Values.Clear(models.FieldAdministrativeUnitID, models.FieldAdministrativeUnitName)
	w.AdministrativeUnits = nil
	w.ClearFieldErrors(models.FieldAdministrativeUnitID)
	clearDirection(w)
}

func clearDirection(w *models.WizardState) {
	w.Values.Clear(models.FieldDirectionID, models.FieldDirectionName)
	w.Directions = nil
	clearArea(w)
}

func clearArea(w *models.WizardState) {
	w.Values.Clear(models.FieldAreaID, models.FieldAreaName)
	w.Areas = nil
}

// parseSelection turns a posted select value into an id; "" and garbage
// both mean "nothing selected".
func parseSelection(value string) (int64, bool) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
