package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"agritrace/internal/domain"
	"agritrace/pkg/platform/sentinel"
)

// PostgreSQL-backed stores. Schema lives in schema.sql; every write is an
// upsert-shaped statement keyed by the storage key so retries are safe.

type PostgresProductStore struct {
	db *sql.DB
}

func NewPostgresProductStore(db *sql.DB) *PostgresProductStore {
	return &PostgresProductStore{db: db}
}

const productColumns = `key, id, name, category, origin, harvest_date, batch_number,
	quality_grade, certifications, grower_id, shipment_id, status,
	attested, attestation_id, attestation_error, attestation_ts,
	verified_by, verified_at, rejected_by, rejected_at, rejection_reason,
	created_at, updated_at`

func (s *PostgresProductStore) Insert(ctx context.Context, p *domain.Product) error {
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
		        $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
	`
	_, err := s.db.ExecContext(ctx, query, productArgs(p)...)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (s *PostgresProductStore) FindByKey(ctx context.Context, key string) (*domain.Product, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE key = $1`, key)
	return scanProduct(row)
}

func (s *PostgresProductStore) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	return scanProduct(row)
}

func (s *PostgresProductStore) ListByStatus(ctx context.Context, status domain.ProductStatus) ([]*domain.Product, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE status = $1 ORDER BY created_at`, string(status))
	if err != nil {
		return nil, fmt.Errorf("list products by status: %w", err)
	}
	return collectProducts(rows)
}

func (s *PostgresProductStore) ListUnattestedVerified(ctx context.Context) ([]*domain.Product, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE status = 'verified' AND attested = FALSE ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list unattested products: %w", err)
	}
	return collectProducts(rows)
}

func (s *PostgresProductStore) Update(ctx context.Context, p *domain.Product) error {
	query := `
		UPDATE products SET
			id = $2, name = $3, category = $4, origin = $5, harvest_date = $6,
			batch_number = $7, quality_grade = $8, certifications = $9,
			grower_id = $10, shipment_id = $11, status = $12,
			attested = $13, attestation_id = $14, attestation_error = $15, attestation_ts = $16,
			verified_by = $17, verified_at = $18,
			rejected_by = $19, rejected_at = $20, rejection_reason = $21,
			created_at = $22, updated_at = $23
		WHERE key = $1
	`
	res, err := s.db.ExecContext(ctx, query, productArgs(p)...)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresProductStore) Delete(ctx context.Context, key string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return requireRow(res)
}

func productArgs(p *domain.Product) []any {
	return []any{
		p.Key, p.ID, p.Name, p.Category, p.Origin, p.HarvestDate, p.BatchNumber,
		p.QualityGrade, pq.Array(p.Certifications), p.GrowerID, p.ShipmentID, string(p.Status),
		p.Attested, p.AttestationID, p.AttestationError, nullTime(p.AttestationTimestamp),
		p.VerifiedBy, nullTime(p.VerifiedAt), p.RejectedBy, nullTime(p.RejectedAt), p.RejectionReason,
		p.CreatedAt, p.UpdatedAt,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var (
		p                                  domain.Product
		status                             string
		certs                              pq.StringArray
		attestedAt, verifiedAt, rejectedAt sql.NullTime
	)
	err := row.Scan(
		&p.Key, &p.ID, &p.Name, &p.Category, &p.Origin, &p.HarvestDate, &p.BatchNumber,
		&p.QualityGrade, &certs, &p.GrowerID, &p.ShipmentID, &status,
		&p.Attested, &p.AttestationID, &p.AttestationError, &attestedAt,
		&p.VerifiedBy, &verifiedAt, &p.RejectedBy, &rejectedAt, &p.RejectionReason,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}
	p.Status = domain.ProductStatus(status)
	p.Certifications = []string(certs)
	p.AttestationTimestamp = attestedAt.Time
	p.VerifiedAt = verifiedAt.Time
	p.RejectedAt = rejectedAt.Time
	return &p, nil
}

func collectProducts(rows *sql.Rows) ([]*domain.Product, error) {
	defer rows.Close()
	var out []*domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type PostgresActorStore struct {
	db *sql.DB
}

func NewPostgresActorStore(db *sql.DB) *PostgresActorStore {
	return &PostgresActorStore{db: db}
}

const actorColumns = `key, name, contact, role, status,
	approved_by, approved_at, rejected_by, rejected_at, rejection_reason,
	status_updated_by, status_updated_at, created_at, updated_at`

func (s *PostgresActorStore) Insert(ctx context.Context, a *domain.Actor) error {
	query := `
		INSERT INTO actors (` + actorColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := s.db.ExecContext(ctx, query, actorArgs(a)...)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert actor: %w", err)
	}
	return nil
}

func (s *PostgresActorStore) FindByKey(ctx context.Context, key string) (*domain.Actor, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+actorColumns+` FROM actors WHERE key = $1`, key)
	return scanActor(row)
}

func (s *PostgresActorStore) ListByStatus(ctx context.Context, status domain.ActorStatus) ([]*domain.Actor, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+actorColumns+` FROM actors WHERE status = $1 ORDER BY created_at`, string(status))
	if err != nil {
		return nil, fmt.Errorf("list actors by status: %w", err)
	}
	defer rows.Close()
	var out []*domain.Actor
	for rows.Next() {
		a, err := scanActor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *PostgresActorStore) Update(ctx context.Context, a *domain.Actor) error {
	query := `
		UPDATE actors SET
			name = $2, contact = $3, role = $4, status = $5,
			approved_by = $6, approved_at = $7,
			rejected_by = $8, rejected_at = $9, rejection_reason = $10,
			status_updated_by = $11, status_updated_at = $12,
			created_at = $13, updated_at = $14
		WHERE key = $1
	`
	res, err := s.db.ExecContext(ctx, query, actorArgs(a)...)
	if err != nil {
		return fmt.Errorf("update actor: %w", err)
	}
	return requireRow(res)
}

func actorArgs(a *domain.Actor) []any {
	return []any{
		a.Key, a.Name, a.Contact, string(a.Role), string(a.Status),
		a.ApprovedBy, nullTime(a.ApprovedAt), a.RejectedBy, nullTime(a.RejectedAt), a.RejectionReason,
		a.StatusUpdatedBy, nullTime(a.StatusUpdatedAt), a.CreatedAt, a.UpdatedAt,
	}
}

func scanActor(row rowScanner) (*domain.Actor, error) {
	var (
		a                                  domain.Actor
		role, status                       string
		approvedAt, rejectedAt, statusUpAt sql.NullTime
	)
	err := row.Scan(
		&a.Key, &a.Name, &a.Contact, &role, &status,
		&a.ApprovedBy, &approvedAt, &a.RejectedBy, &rejectedAt, &a.RejectionReason,
		&a.StatusUpdatedBy, &statusUpAt, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan actor: %w", err)
	}
	a.Role = domain.ActorRole(role)
	a.Status = domain.ActorStatus(status)
	a.ApprovedAt = approvedAt.Time
	a.RejectedAt = rejectedAt.Time
	a.StatusUpdatedAt = statusUpAt.Time
	return &a, nil
}

type PostgresShipmentStore struct {
	db *sql.DB
}

func NewPostgresShipmentStore(db *sql.DB) *PostgresShipmentStore {
	return &PostgresShipmentStore{db: db}
}

const shipmentColumns = `key, code, name, product_ids, origin, destination, carrier,
	departure_date, distributor_id, status,
	attested, attestation_id, attestation_error, attestation_ts,
	created_at, updated_at`

func (s *PostgresShipmentStore) Insert(ctx context.Context, sh *domain.Shipment) error {
	query := `
		INSERT INTO shipments (` + shipmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err := s.db.ExecContext(ctx, query, shipmentArgs(sh)...)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert shipment: %w", err)
	}
	return nil
}

func (s *PostgresShipmentStore) FindByKey(ctx context.Context, key string) (*domain.Shipment, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+shipmentColumns+` FROM shipments WHERE key = $1`, key)
	return scanShipment(row)
}

func (s *PostgresShipmentStore) FindByCode(ctx context.Context, code string) (*domain.Shipment, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+shipmentColumns+` FROM shipments WHERE code = $1`, code)
	return scanShipment(row)
}

func (s *PostgresShipmentStore) ListByProductID(ctx context.Context, productID string) ([]*domain.Shipment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+shipmentColumns+` FROM shipments WHERE $1 = ANY(product_ids) ORDER BY created_at`, productID)
	if err != nil {
		return nil, fmt.Errorf("list shipments by product: %w", err)
	}
	defer rows.Close()
	var out []*domain.Shipment
	for rows.Next() {
		sh, err := scanShipment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sh)
	}
	return out, rows.Err()
}

func (s *PostgresShipmentStore) Update(ctx context.Context, sh *domain.Shipment) error {
	query := `
		UPDATE shipments SET
			code = $2, name = $3, product_ids = $4, origin = $5, destination = $6,
			carrier = $7, departure_date = $8, distributor_id = $9, status = $10,
			attested = $11, attestation_id = $12, attestation_error = $13, attestation_ts = $14,
			created_at = $15, updated_at = $16
		WHERE key = $1
	`
	res, err := s.db.ExecContext(ctx, query, shipmentArgs(sh)...)
	if err != nil {
		return fmt.Errorf("update shipment: %w", err)
	}
	return requireRow(res)
}

func shipmentArgs(sh *domain.Shipment) []any {
	return []any{
		sh.Key, sh.Code, sh.Name, pq.Array(sh.ProductIDs), sh.Origin, sh.Destination, sh.Carrier,
		sh.DepartureDate, sh.DistributorID, string(sh.Status),
		sh.Attested, sh.AttestationID, sh.AttestationError, nullTime(sh.AttestationTimestamp),
		sh.CreatedAt, sh.UpdatedAt,
	}
}

func scanShipment(row rowScanner) (*domain.Shipment, error) {
	var (
		sh         domain.Shipment
		status     string
		productIDs pq.StringArray
		attestedAt sql.NullTime
	)
	err := row.Scan(
		&sh.Key, &sh.Code, &sh.Name, &productIDs, &sh.Origin, &sh.Destination, &sh.Carrier,
		&sh.DepartureDate, &sh.DistributorID, &status,
		&sh.Attested, &sh.AttestationID, &sh.AttestationError, &attestedAt,
		&sh.CreatedAt, &sh.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan shipment: %w", err)
	}
	sh.Status = domain.ShipmentStatus(status)
	sh.ProductIDs = []string(productIDs)
	sh.AttestationTimestamp = attestedAt.Time
	return &sh, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
