package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"visitor_access_go/models"
)

// AreaParent selects which parent the areas endpoint filters by
type AreaParent string

const (
	AreaParentUnit      AreaParent = "unit"
	AreaParentDirection AreaParent = "direction"
)

// SearchVisitorResponse is the answer of GET /visitors/search-visitor
type SearchVisitorResponse struct {
	Exists  bool            `json:"exists"`
	Visitor *models.Visitor `json:"visitor,omitempty"`
}

// SearchVisitor looks a visitor up by document number. A 404 is reported
// as Exists=false rather than an error.
func (c *Client) SearchVisitor(ctx context.Context, dniNumber int64) (*SearchVisitorResponse, error) {
	var resp SearchVisitorResponse
	err := c.get(ctx, "/visitors/search-visitor"+query("dni", itoa(dniNumber)), &resp)
	if errors.Is(err, ErrNotFound) {
		return &SearchVisitorResponse{Exists: false}, nil
	}
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Entities returns the top-level organizations that can be visited.
func (c *Client) Entities(ctx context.Context) ([]models.Option, error) {
	var opts []models.Option
	if err := c.get(ctx, "/selects/entities", &opts); err != nil {
		return nil, err
	}
	return opts, nil
}

// AdministrativeUnits returns the units of an entity.
func (c *Client) AdministrativeUnits(ctx context.Context, entityID int64) ([]models.Option, error) {
	var opts []models.Option
	if err := c.get(ctx, "/selects/administrative-units/"+itoa(entityID), &opts); err != nil {
		return nil, err
	}
	return opts, nil
}

// Directions returns the directions of an administrative unit.
func (c *Client) Directions(ctx context.Context, unitID int64) ([]models.Option, error) {
	var opts []models.Option
	if err := c.get(ctx, "/selects/directions/"+itoa(unitID), &opts); err != nil {
		return nil, err
	}
	return opts, nil
}

// Areas returns the areas under a unit or a direction.
func (c *Client) Areas(ctx context.Context, parentID int64, parent AreaParent) ([]models.Option, error) {
	var opts []models.Option
	path := fmt.Sprintf("/selects/areas/%d%s", parentID, query("type", string(parent)))
	if err := c.get(ctx, path, &opts); err != nil {
		return nil, err
	}
	return opts, nil
}

// RegisterRequest is the body of POST /visitors/register-complete. Vehicle
// fields are pointers so they are omitted entirely for pedestrian visits;
// direction and area are sent as null when absent.
type RegisterRequest struct {
	DNITypeID             int     `json:"dni_type_id"`
	DNINumber             int64   `json:"dni_number"`
	FirstName             string  `json:"firstName"`
	LastName              string  `json:"lastName"`
	ContactNumberPrefixID int     `json:"contact_number_prefix_id"`
	ContactNumber         string  `json:"contact_number"`
	VisitTypeID           int     `json:"visit_type_id"`
	EntryType             string  `json:"entry_type"`
	EntityID              int64   `json:"entity_id"`
	AdministrativeUnitID  int64   `json:"administrative_unit_id"`
	AreaID                *int64  `json:"area_id"`
	DirectionID           *int64  `json:"direction_id"`
	VisitDate             string  `json:"visit_date"`
	VisitHour             string  `json:"visit_hour"`
	VisitReason           string  `json:"visit_reason"`
	Contact               string  `json:"contact"`
	EnterpriseName        string  `json:"enterpriseName"`
	EnterpriseRIF         string  `json:"enterpriseRif,omitempty"`
	VisitorPhoto          string  `json:"visitor_photo,omitempty"`
	VehiclePlate          *string `json:"vehicle_plate,omitempty"`
	VehicleModel          *string `json:"vehicle_model,omitempty"`
	VehicleBrand          *string `json:"vehicle_brand,omitempty"`
	VehicleColor          *string `json:"vehicle_color,omitempty"`
}

// RegisterComplete creates the visitor (when new) and the visit in one
// call and returns the raw created record.
func (c *Client) RegisterComplete(ctx context.Context, req RegisterRequest) (json.RawMessage, error) {
	var created json.RawMessage
	if err := c.send(ctx, http.MethodPost, "/visitors/register-complete", req, &created); err != nil {
		return nil, err
	}
	return created, nil
}

// ListVisits returns every visit record. The backend answers either with a
// bare array or with {"data": [...]}.
func (c *Client) ListVisits(ctx context.Context) ([]models.Visit, error) {
	var raw json.RawMessage
	if err := c.get(ctx, "/visitors", &raw); err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return []models.Visit{}, nil
	}

	var visits []models.Visit
	if raw[0] == '[' {
		if err := json.Unmarshal(raw, &visits); err != nil {
			return nil, fmt.Errorf("decoding visits: %w", err)
		}
		return visits, nil
	}

	var wrapped struct {
		Data []models.Visit `json:"data"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("decoding visits: %w", err)
	}
	if wrapped.Data == nil {
		return []models.Visit{}, nil
	}
	return wrapped.Data, nil
}

// DeleteVisits removes several visits in one request.
func (c *Client) DeleteVisits(ctx context.Context, ids []int64) error {
	body := map[string][]int64{"ids": ids}
	return c.send(ctx, http.MethodDelete, "/visitors", body, nil)
}

// DeleteVisit removes one visit.
func (c *Client) DeleteVisit(ctx context.Context, id int64) error {
	return c.send(ctx, http.MethodDelete, "/visitors/"+itoa(id), nil, nil)
}

// MarkExit asks the backend to stamp the exit time of a visit.
func (c *Client) MarkExit(ctx context.Context, id int64) error {
	return c.send(ctx, http.MethodPatch, "/visitors/exit/"+itoa(id), nil, nil)
}

// DashboardStats returns aggregate statistics for a time range and metric.
func (c *Client) DashboardStats(ctx context.Context, timeRange, metric string) (*models.DashboardStats, error) {
	params := url.Values{}
	params.Set("timeRange", timeRange)
	if metric != "" {
		params.Set("metric", metric)
	}
	var stats models.DashboardStats
	if err := c.get(ctx, "/visitors/dashboard-stats?"+params.Encode(), &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// VisitorStats returns one visitor's history. A 404 is reported as
// Exists=false.
func (c *Client) VisitorStats(ctx context.Context, dniNumber int64) (*models.VisitorStats, error) {
	var stats models.VisitorStats
	err := c.get(ctx, "/visitors/visitor-stats"+query("dni", itoa(dniNumber)), &stats)
	if errors.Is(err, ErrNotFound) {
		return &models.VisitorStats{Exists: false}, nil
	}
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// LoginResponse is the answer of POST /auth/login
type LoginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	body := map[string]string{"username": username, "password": password}
	var resp LoginResponse
	if err := c.send(ctx, http.MethodPost, "/auth/login", body, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, fmt.Errorf("login response carried no token")
	}
	return &resp, nil
}

// VerifyToken checks the context token against the backend.
func (c *Client) VerifyToken(ctx context.Context) error {
	return c.send(ctx, http.MethodPost, "/auth/verify-token", nil, nil)
}
