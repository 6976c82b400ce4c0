// Package provenance assembles verification results from independent,
// loosely-linked sources: the document store on one side and the ledger on
// the other. Neither source gates the other; either alone is enough to call
// a product found.
package provenance

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"agritrace/internal/domain"
	"agritrace/internal/ledger"
	"agritrace/internal/platform/metrics"
	"agritrace/internal/recent"
	"agritrace/internal/store"
	dErrors "agritrace/pkg/domain-errors"
	"agritrace/pkg/platform/sentinel"
	"agritrace/pkg/requestcontext"
)

// DefaultLedgerTimeout bounds the ledger branch of a lookup. A hanging
// ledger must not delay a result that can be served from the store alone.
const DefaultLedgerTimeout = 3 * time.Second

const dateLayout = "2006-01-02"

// Service is the provenance aggregator.
type Service struct {
	products  store.ProductStore
	actors    store.ActorStore
	shipments store.ShipmentStore
	ledger    ledger.Gateway
	recent    recent.Cache

	ledgerTimeout time.Duration
	logger        *slog.Logger
	metrics       *metrics.Metrics
}

// New constructs the aggregator. logger and metrics may be nil.
func New(
	products store.ProductStore,
	actors store.ActorStore,
	shipments store.ShipmentStore,
	gw ledger.Gateway,
	cache recent.Cache,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		products:      products,
		actors:        actors,
		shipments:     shipments,
		ledger:        gw,
		recent:        cache,
		ledgerTimeout: DefaultLedgerTimeout,
		logger:        logger,
		metrics:       m,
	}
}

// WithLedgerTimeout overrides the bound on the ledger lookup branch.
func (s *Service) WithLedgerTimeout(d time.Duration) *Service {
	s.ledgerTimeout = d
	return s
}

// gatheredEvidence holds the raw material of one lookup before merging.
// Every branch's absence is representable; only a store transport failure
// aborts the whole gather.
type gatheredEvidence struct {
	product      *domain.Product
	grower       *domain.Actor
	shipments    []*domain.Shipment
	distributors map[string]*domain.Actor
	attestation  *domain.Attestation
}

// Verify looks up identifier in both sources concurrently and merges the
// results. The store branch resolves the product by its public ID first,
// then by storage key. A ledger failure downgrades only the ledger-sourced
// fields; a store transport failure propagates as unavailable, which is
// distinct from the product simply not being found anywhere.
func (s *Service) Verify(ctx context.Context, identifier string) (*domain.VerificationResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "product identifier is required")
	}

	evidence := &gatheredEvidence{distributors: make(map[string]*domain.Actor)}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		start := time.Now()
		err := s.gatherStoreEvidence(gctx, identifier, evidence)
		s.metrics.ObserveSourceLatency("store", time.Since(start))
		return err
	})

	g.Go(func() error {
		start := time.Now()
		s.gatherLedgerEvidence(gctx, identifier, evidence)
		s.metrics.ObserveSourceLatency("ledger", time.Since(start))
		// Ledger failures never abort a lookup.
		return nil
	})

	if err := g.Wait(); err != nil {
		s.metrics.ObserveLookup("failed")
		return nil, err
	}

	result := s.merge(ctx, identifier, evidence)

	// Record the lookup even when nothing was found, so repeated failed
	// scans stay visible.
	s.recordRecent(ctx, identifier, result)

	if result.Verified {
		s.metrics.ObserveLookup("verified")
	} else {
		s.metrics.ObserveLookup("not_found")
	}
	return result, nil
}

// ListRecent returns the bounded recent-lookup history, newest first.
func (s *Service) ListRecent(ctx context.Context) ([]domain.RecentLookupEntry, error) {
	entries, err := s.recent.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "recent lookups unavailable")
	}
	return entries, nil
}

// gatherStoreEvidence resolves the product and, best-effort, the records
// linked to it. Only the primary product read can fail the gather; a broken
// grower or shipment branch is logged and recorded as absence.
func (s *Service) gatherStoreEvidence(ctx context.Context, identifier string, ev *gatheredEvidence) error {
	product, err := s.products.FindByID(ctx, identifier)
	if errors.Is(err, sentinel.ErrNotFound) {
		product, err = s.products.FindByKey(ctx, identifier)
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "product lookup failed")
	}
	ev.product = product

	if product.GrowerID != "" {
		grower, err := s.actors.FindByKey(ctx, product.GrowerID)
		if err != nil {
			s.logWarn(ctx, "grower lookup failed", "grower_id", product.GrowerID, "error", err)
		} else {
			ev.grower = grower
		}
	}

	shipments, err := s.shipments.ListByProductID(ctx, product.ID)
	if err != nil {
		s.logWarn(ctx, "shipment lookup failed", "product_id", product.ID, "error", err)
		return nil
	}
	ev.shipments = shipments

	for _, sh := range shipments {
		if sh.DistributorID == "" {
			continue
		}
		if _, ok := ev.distributors[sh.DistributorID]; ok {
			continue
		}
		distributor, err := s.actors.FindByKey(ctx, sh.DistributorID)
		if err != nil {
			s.logWarn(ctx, "distributor lookup failed", "distributor_id", sh.DistributorID, "error", err)
			continue
		}
		ev.distributors[sh.DistributorID] = distributor
	}
	return nil
}

// gatherLedgerEvidence queries the ledger under its own timeout. Errors
// downgrade the ledger source and are swallowed here.
func (s *Service) gatherLedgerEvidence(ctx context.Context, identifier string, ev *gatheredEvidence) {
	ctx, cancel := context.WithTimeout(ctx, s.ledgerTimeout)
	defer cancel()

	attestation, err := s.ledger.Lookup(ctx, identifier)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			s.logWarn(ctx, "ledger lookup failed", "identifier", identifier, "error", err)
		}
		return
	}
	ev.attestation = attestation
}

func (s *Service) merge(ctx context.Context, identifier string, ev *gatheredEvidence) *domain.VerificationResult {
	result := &domain.VerificationResult{
		ProductID: identifier,
		Sources: domain.VerificationSources{
			Store:  ev.product != nil,
			Ledger: ev.attestation != nil,
		},
		Attestation: ev.attestation,
		LookedUpAt:  requestcontext.Now(ctx),
	}
	result.Verified = result.Sources.Store || result.Sources.Ledger

	if ev.product != nil {
		result.ProductID = ev.product.ID
	}
	result.Detail = mergeDetail(ev)
	result.Journey = mergeJourney(ev)
	return result
}

// mergeDetail applies field precedence: a store value wins when non-empty;
// placeholders fill in when neither source has the field. The result shape
// never drops an attribute.
func mergeDetail(ev *gatheredEvidence) domain.ProductDetail {
	detail := domain.ProductDetail{
		Name:        domain.PlaceholderUnknown,
		Category:    domain.PlaceholderNotSpecified,
		Origin:      domain.PlaceholderUnknown,
		HarvestDate: domain.PlaceholderNotSpecified,
		GrowerName:  domain.PlaceholderUnknown,
	}

	if p := ev.product; p != nil {
		setIfPresent(&detail.Name, p.Name)
		setIfPresent(&detail.Category, p.Category)
		setIfPresent(&detail.Origin, p.Origin)
		setIfPresent(&detail.HarvestDate, p.HarvestDate)
		detail.Certifications = p.Certifications
		detail.Status = string(p.Status)
	}
	if ev.grower != nil {
		setIfPresent(&detail.GrowerName, ev.grower.Name)
	}

	// Ledger history can name a location and handler when the store has
	// nothing at all for this product.
	if ev.product == nil && ev.attestation != nil {
		for _, step := range ev.attestation.History {
			if detail.Origin == domain.PlaceholderUnknown && step.Location != "" {
				detail.Origin = step.Location
			}
		}
	}
	return detail
}

func setIfPresent(dst *string, value string) {
	if strings.TrimSpace(value) != "" {
		*dst = value
	}
}

// mergeJourney builds the store-derived steps ordered oldest first, with
// zero timestamps sorting last, stably, then appends the ledger history.
// Every step is tagged with its source.
func mergeJourney(ev *gatheredEvidence) []domain.JourneyStep {
	var steps []domain.JourneyStep

	if p := ev.product; p != nil {
		harvest := domain.JourneyStep{
			Step:      "Harvested",
			Location:  p.Origin,
			Timestamp: parseDate(p.HarvestDate),
			Source:    domain.JourneySourceStore,
		}
		if ev.grower != nil {
			harvest.Handler = ev.grower.Name
		}
		steps = append(steps, harvest)
	}

	for _, sh := range ev.shipments {
		step := domain.JourneyStep{
			Step:      "Shipped " + sh.Code,
			Location:  shipmentRoute(sh),
			Handler:   sh.Carrier,
			Timestamp: parseDate(sh.DepartureDate),
			Source:    domain.JourneySourceStore,
		}
		if d, ok := ev.distributors[sh.DistributorID]; ok {
			step.Handler = d.Name
		}
		steps = append(steps, step)
	}

	sort.SliceStable(steps, func(i, j int) bool {
		a, b := steps[i].Timestamp, steps[j].Timestamp
		if a.IsZero() {
			return false
		}
		if b.IsZero() {
			return true
		}
		return a.Before(b)
	})

	if ev.attestation != nil {
		for _, h := range ev.attestation.History {
			steps = append(steps, domain.JourneyStep{
				Step:      h.Step,
				Location:  h.Location,
				Timestamp: h.Timestamp,
				Source:    domain.JourneySourceLedger,
			})
		}
	}
	return steps
}

func shipmentRoute(sh *domain.Shipment) string {
	switch {
	case sh.Origin != "" && sh.Destination != "":
		return sh.Origin + " to " + sh.Destination
	case sh.Origin != "":
		return sh.Origin
	default:
		return sh.Destination
	}
}

// parseDate tolerates the free-form date strings growers enter. Anything
// unparseable becomes a zero time, which the journey sort places last.
func parseDate(value string) time.Time {
	t, err := time.Parse(dateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}
	}
	return t
}

func (s *Service) recordRecent(ctx context.Context, identifier string, result *domain.VerificationResult) {
	if s.recent == nil {
		return
	}

	name := result.Detail.Name
	if name == domain.PlaceholderUnknown {
		// No source could name the product; show the raw input so the
		// failed scan is still recognizable.
		name = identifier
	}

	entry := domain.RecentLookupEntry{
		ProductID:  result.ProductID,
		Name:       name,
		Verified:   result.Verified,
		GrowerName: result.Detail.GrowerName,
		Origin:     result.Detail.Origin,
		Timestamp:  result.LookedUpAt,
	}
	if err := s.recent.Record(ctx, entry); err != nil {
		s.logWarn(ctx, "recording recent lookup failed", "product_id", entry.ProductID, "error", err)
	}
}

func (s *Service) logWarn(ctx context.Context, msg string, args ...any) {
	if s.logger == nil {
		return
	}
	s.logger.WarnContext(ctx, msg, args...)
}
