// Package records stores canonical course records through gorm.
//
// Records cross the boundary as entities.Record maps. The repository bridges
// them to the persisted models through the models' JSON field names, so a
// record handed to Create or Update must already carry native values (see
// importers.Coerce); string dates or counts are rejected by the bridge.
package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mrlokans/courserecords/internal/entities"
	"github.com/mrlokans/courserecords/internal/services"
)

var ErrUnknownEntity = errors.New("unknown entity")

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByNaturalKey looks up the stored record matching the natural key fields
// of rec. A record with an absent or empty key field matches nothing.
func (r *Repository) FindByNaturalKey(ctx context.Context, entity string, rec entities.Record) (entities.Record, bool, error) {
	model, err := newModel(entity)
	if err != nil {
		return nil, false, err
	}

	conds := make(map[string]any, len(entities.NaturalKeys[entity]))
	for _, field := range entities.NaturalKeys[entity] {
		value := rec[field]
		if value == nil || value == "" {
			return nil, false, nil
		}
		conds[field] = value
	}

	err = r.db.WithContext(ctx).Where(conds).Take(model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	found, err := toRecord(model)
	if err != nil {
		return nil, false, err
	}
	return found, true, nil
}

func (r *Repository) Exists(ctx context.Context, entity, id string) (bool, error) {
	model, err := newModel(entity)
	if err != nil {
		return false, err
	}
	if !entities.HasOwnID(entity) {
		return false, nil
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts rec and returns its id. Entities with their own id get a
// fresh UUID when rec carries none; join entities return "".
func (r *Repository) Create(ctx context.Context, entity string, rec entities.Record) (string, error) {
	rec = rec.Clone()
	id := ""
	if entities.HasOwnID(entity) {
		id = rec.String("id")
		if id == "" {
			id = uuid.NewString()
			rec["id"] = id
		}
	}

	model, err := fromRecord(entity, rec)
	if err != nil {
		return "", err
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return "", err
	}
	return id, nil
}

// Update overlays the fields present in rec onto the stored record with the
// given id. Fields absent from rec keep their stored values. Join entities
// carry nothing beyond their key, so updating one is a no-op.
func (r *Repository) Update(ctx context.Context, entity, id string, rec entities.Record) error {
	model, err := newModel(entity)
	if err != nil {
		return err
	}
	if !entities.HasOwnID(entity) {
		return nil
	}

	db := r.db.WithContext(ctx)
	if err := db.Where("id = ?", id).Take(model).Error; err != nil {
		return err
	}

	patch := rec.Clone()
	delete(patch, "id")
	data, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("failed to encode %s record: %w", entity, err)
	}
	if err := json.Unmarshal(data, model); err != nil {
		return fmt.Errorf("failed to map %s record: %w", entity, err)
	}

	return db.Save(model).Error
}

// List returns every stored record of the entity, scoped to an institution
// when institutionID is set. Entities without an institution column are
// scoped through the user, course or offering they belong to.
func (r *Repository) List(ctx context.Context, entity, institutionID string) ([]entities.Record, error) {
	model, err := newModel(entity)
	if err != nil {
		return nil, err
	}
	rows := entities.NewModelSlice(entity)

	query := r.db.WithContext(ctx).Model(model)
	if institutionID != "" {
		query = r.scope(query, entity, institutionID)
	}
	if err := query.Order(listOrder(entity)).Find(rows).Error; err != nil {
		return nil, err
	}

	data, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s rows: %w", entity, err)
	}
	var raw []map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode %s rows: %w", entity, err)
	}

	out := make([]entities.Record, len(raw))
	for i, fields := range raw {
		out[i] = native(fields)
	}
	return out, nil
}

func (r *Repository) scope(query *gorm.DB, entity, institutionID string) *gorm.DB {
	switch entity {
	case entities.EntityInstitutions:
		return query.Where("id = ?", institutionID)
	case entities.EntityUserPrograms:
		return query.Where("user_id IN (?)", r.idsOf(&entities.User{}, institutionID))
	case entities.EntityCoursePrograms, entities.EntityCourseOutcomes:
		return query.Where("course_id IN (?)", r.idsOf(&entities.Course{}, institutionID))
	case entities.EntityCourseSections:
		return query.Where("offering_id IN (?)", r.idsOf(&entities.CourseOffering{}, institutionID))
	default:
		return query.Where("institution_id = ?", institutionID)
	}
}

func (r *Repository) idsOf(model any, institutionID string) *gorm.DB {
	return r.db.Model(model).Select("id").Where("institution_id = ?", institutionID)
}

func listOrder(entity string) string {
	if entities.HasOwnID(entity) {
		return "created_at, id"
	}
	return strings.Join(entities.NaturalKeys[entity], ", ")
}

func newModel(entity string) (any, error) {
	model := entities.NewModel(entity)
	if model == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntity, entity)
	}
	return model, nil
}

func fromRecord(entity string, rec entities.Record) (any, error) {
	model, err := newModel(entity)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s record: %w", entity, err)
	}
	if err := json.Unmarshal(data, model); err != nil {
		return nil, fmt.Errorf("failed to map %s record: %w", entity, err)
	}
	return model, nil
}

func toRecord(model any) (entities.Record, error) {
	data, err := json.Marshal(model)
	if err != nil {
		return nil, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return native(raw), nil
}

// native restores the kinds JSON loses: counts come back as int and
// timestamps as time.Time.
func native(raw map[string]any) entities.Record {
	rec := make(entities.Record, len(raw))
	for field, value := range raw {
		switch entities.KindOf(field) {
		case entities.KindInt:
			if f, ok := value.(float64); ok {
				value = int(f)
			}
		case entities.KindDate, entities.KindDateTime:
			if s, ok := value.(string); ok {
				if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
					value = t
				}
			}
		}
		rec[field] = value
	}
	return rec
}

var _ services.RecordStore = (*Repository)(nil)
