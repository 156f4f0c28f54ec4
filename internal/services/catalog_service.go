package services

import (
	"context"
	"fmt"

	"github.com/harborview/hms/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CatalogService manages the hotel services catalog (spa, laundry, …).
type CatalogService struct {
	servicesRepo models.ServicesRepo
	audit        *AuditService
}

func NewCatalogService(servicesRepo models.ServicesRepo, audit *AuditService) *CatalogService {
	return &CatalogService{
		servicesRepo: servicesRepo,
		audit:        audit,
	}
}

func (cs *CatalogService) ListServices(ctx context.Context) ([]*models.Service, error) {
	return cs.servicesRepo.ListServices(ctx)
}

func (cs *CatalogService) CreateService(ctx context.Context, service *models.Service, actorID string) (*models.Service, error) {
	if err := models.Validate.Struct(service); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrValidation, err)
	}

	created, err := cs.servicesRepo.CreateService(ctx, service)
	if err != nil {
		return nil, err
	}

	cs.audit.Log(ctx, "create", "service", created.ID.Hex(), actorID, map[string]any{
		"name":  created.Name,
		"price": created.Price,
	})
	return created, nil
}

func (cs *CatalogService) UpdateService(ctx context.Context, id primitive.ObjectID, fields bson.M, actorID string) (*models.Service, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: no fields to update", models.ErrValidation)
	}

	old, err := cs.servicesRepo.GetServiceByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updated, err := cs.servicesRepo.UpdateService(ctx, id, fields)
	if err != nil {
		return nil, err
	}

	cs.audit.Log(ctx, "update", "service", id.Hex(), actorID, map[string]any{
		"old_values": old,
		"new_values": fields,
	})
	return updated, nil
}

func (cs *CatalogService) DeleteService(ctx context.Context, id primitive.ObjectID, actorID string) error {
	service, err := cs.servicesRepo.GetServiceByID(ctx, id)
	if err != nil {
		return err
	}

	if err := cs.servicesRepo.DeleteService(ctx, id); err != nil {
		return err
	}

	cs.audit.Log(ctx, "delete", "service", id.Hex(), actorID, map[string]any{
		"deleted_values": service,
	})
	return nil
}
