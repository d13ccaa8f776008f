package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"raahi/internal/domain"
	"raahi/internal/fleet"
	"raahi/internal/geo"
	"raahi/internal/routes"
	"raahi/internal/sampler"
	"raahi/internal/session"
	"raahi/internal/view"
	"raahi/pkg/geoloc"
	"raahi/pkg/trackerapi"
)

// RouteAPI is the REST side of the tracking server.
type RouteAPI interface {
	ListRoutes(ctx context.Context) ([]*domain.Route, error)
	RouteBuses(ctx context.Context, routeID string) ([]*domain.VehicleRecord, error)
	RoutePath(ctx context.Context, start, end domain.Coordinate) (*trackerapi.PathGeometry, error)
}

// Publisher is the outbound half of the update channel.
type Publisher interface {
	Subscribe(routeID string)
	PublishPosition(pos domain.VehiclePosition) error
}

// Renderer frames the map viewport. Rendering itself is external; the engine
// only tells it what to look at.
type Renderer interface {
	Frame(view.Viewport)
}

// Engine owns the client state: the session machine, the fleet view for the
// tracked route, the route catalog, and the self position. All mutations go
// through its methods; there are no other writers.
type Engine struct {
	id        string
	api       RouteAPI
	publisher Publisher
	sampler   *sampler.Sampler
	logger    *slog.Logger

	mu       sync.Mutex
	session  *session.Session
	fleet    *fleet.Store
	routes   *routes.Store
	renderer Renderer
	runCtx   context.Context

	self      domain.Coordinate
	lastFixAt time.Time

	selectedRoute *domain.Route
	selectedBus   string
	routePath     []domain.Coordinate

	driverSpeed     float64
	driverOccupancy int
}

func New(api RouteAPI, publisher Publisher, smp *sampler.Sampler, logger *slog.Logger) *Engine {
	e := &Engine{
		id:        uuid.New().String(),
		api:       api,
		publisher: publisher,
		sampler:   smp,
		logger:    logger.With("component", "engine"),
		session:   session.New(),
		fleet:     fleet.New(),
		routes:    routes.New(),
	}

	smp.OnFix(e.handleFix)
	smp.OnError(e.handleFixError)

	return e
}

// SetRenderer attaches the external map renderer.
func (e *Engine) SetRenderer(r Renderer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.renderer = r
}

// Run loads the route catalog and starts sampling at the commuter cadence.
// Catalog failures are non-fatal: the client runs with an empty listing and
// the caller may retry through RefreshRoutes.
func (e *Engine) Run(ctx context.Context) {
	e.mu.Lock()
	e.runCtx = ctx
	e.mu.Unlock()

	e.logger.Info("engine starting", "session_id", e.id)

	if err := e.RefreshRoutes(ctx); err != nil {
		e.logger.Error("failed to load route catalog", "error", err)
	}

	e.mu.Lock()
	role := e.session.Role()
	e.mu.Unlock()
	e.sampler.Restart(ctx, role)

	e.refreshView()
}

// RefreshRoutes refetches the route catalog.
func (e *Engine) RefreshRoutes(ctx context.Context) error {
	list, err := e.api.ListRoutes(ctx)
	if err != nil {
		return err
	}
	e.routes.Replace(list)
	e.logger.Info("route catalog loaded", "routes", len(list))
	return nil
}

// Routes returns the catalog in listing order.
func (e *Engine) Routes() []*domain.Route {
	return e.routes.All()
}

// ChooseRole moves the session out of role selection and re-establishes the
// sampling cadence for the new role.
func (e *Engine) ChooseRole(role session.Role) error {
	e.mu.Lock()
	if err := e.session.ChooseRole(role); err != nil {
		e.mu.Unlock()
		return err
	}
	ctx, newRole := e.runCtx, e.session.Role()
	e.mu.Unlock()

	e.logger.Info("role selected", "role", string(role))
	e.restartSampling(ctx, newRole)
	return nil
}

// Login completes driver authentication. Only after it succeeds are sampled
// positions published.
func (e *Engine) Login(vehicleID string) error {
	e.mu.Lock()
	if err := e.session.Login(vehicleID); err != nil {
		e.mu.Unlock()
		return err
	}
	ctx, role, id := e.runCtx, e.session.Role(), e.session.VehicleID()
	e.mu.Unlock()

	e.logger.Info("driver logged in", "bus_number", id)
	// authentication change invalidates the running timer
	e.restartSampling(ctx, role)
	return nil
}

// Back returns from driver login to role selection.
func (e *Engine) Back() error {
	e.mu.Lock()
	err := e.session.Back()
	ctx, role := e.runCtx, e.session.Role()
	e.mu.Unlock()
	if err != nil {
		return err
	}
	e.restartSampling(ctx, role)
	return nil
}

// Logout drops the session back to role selection. The driver publishing
// gate closes and the sampler returns to the commuter cadence before this
// call returns, so no further tick can emit with the old identity.
func (e *Engine) Logout() {
	e.mu.Lock()
	e.session.Reset()
	ctx, role := e.runCtx, e.session.Role()
	e.mu.Unlock()

	e.logger.Info("logged out")
	e.restartSampling(ctx, role)
}

// SessionState exposes the current machine position for the shell UI.
func (e *Engine) SessionState() session.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.State()
}

// SelectRoute switches tracking to routeID: the fleet view is cleared, the
// subscription replaced, and the initial roster fetched to seed the view
// before live updates arrive. Any bus selection is dropped.
func (e *Engine) SelectRoute(ctx context.Context, routeID string) error {
	route, ok := e.routes.Get(routeID)
	if !ok {
		e.logger.Warn("route not in catalog",
			"route_id", routeID, "catalog_age", time.Since(e.routes.LoadedAt()))
		return fmt.Errorf("unknown route %q", routeID)
	}
	route.Stops = route.StopsInOrder()

	e.mu.Lock()
	e.selectedRoute = route
	e.selectedBus = ""
	e.routePath = nil
	e.mu.Unlock()

	e.fleet.SetRoute(routeID)
	e.publisher.Subscribe(routeID)

	roster, err := e.api.RouteBuses(ctx, routeID)
	if err != nil {
		// non-fatal: live updates will fill the view
		e.logger.Warn("roster fetch failed", "route_id", routeID, "error", err)
	} else {
		applied := e.fleet.Seed(routeID, roster)
		e.logger.Info("route selected",
			"route_id", routeID, "seeded", applied,
			"operating", string(route.OperatingStateAt(time.Now())))
	}

	e.refreshView()
	return nil
}

// SelectBus focuses one bus on the tracked route and, when a self position
// is known, asks the optional path endpoint for a route to it. An absent
// endpoint leaves the path nil without failing the selection.
func (e *Engine) SelectBus(ctx context.Context, busNumber string) error {
	rec, ok := e.fleet.Get(busNumber)
	if !ok {
		return fmt.Errorf("bus %q is not on the tracked route", busNumber)
	}

	e.mu.Lock()
	e.selectedBus = busNumber
	e.routePath = nil
	self := e.self
	e.mu.Unlock()

	e.logger.Info("bus selected", "bus_number", busNumber,
		"occupancy", string(view.OccupancyLevelOf(rec.CurrentOccupancy, rec.Capacity)),
		"updated", view.FormatLastUpdate(rec.LastUpdated, time.Now()))

	if self.Valid() && rec.Coordinates.Valid() {
		geom, err := e.api.RoutePath(ctx, self, rec.Coordinates)
		if err != nil {
			e.logger.Debug("path lookup failed", "bus_number", busNumber, "error", err)
		} else if geom != nil {
			e.mu.Lock()
			e.routePath = geom.Polyline()
			e.mu.Unlock()
		}
	}

	e.refreshView()
	return nil
}

// ClearBusSelection drops the focused bus and its path.
func (e *Engine) ClearBusSelection() {
	e.mu.Lock()
	e.selectedBus = ""
	e.routePath = nil
	e.mu.Unlock()
	e.refreshView()
}

// HandleFleetUpdate is the inbound snapshot sink registered on the update
// channel. Batches for other routes are discarded by the store.
func (e *Engine) HandleFleetUpdate(routeID string, buses []*domain.VehicleRecord) {
	applied := e.fleet.Merge(routeID, buses)
	if applied == 0 {
		return
	}
	e.logger.Debug("fleet update merged", "route_id", routeID, "applied", applied, "total", e.fleet.Count())
	e.refreshView()
}

// Buses returns the current fleet view for the tracked route.
func (e *Engine) Buses() []*domain.VehicleRecord {
	return e.fleet.Snapshot()
}

// SelfPosition returns the last known own position, if any.
func (e *Engine) SelfPosition() (domain.Coordinate, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.self, e.self.Valid()
}

// RoutePathLine returns the path polyline to the selected bus, nil when the
// path collaborator is absent or no bus is selected.
func (e *Engine) RoutePathLine() []domain.Coordinate {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.routePath
}

// DistanceToBus returns the display distance in km from self to a bus.
func (e *Engine) DistanceToBus(busNumber string) (float64, bool) {
	rec, ok := e.fleet.Get(busNumber)
	if !ok || !rec.Coordinates.Valid() {
		return 0, false
	}

	e.mu.Lock()
	self := e.self
	e.mu.Unlock()
	if !self.Valid() {
		return 0, false
	}

	return geo.DisplayDistanceKm(self, rec.Coordinates), true
}

// SetDriverOccupancy records the rider count the driver reports with each
// position update.
func (e *Engine) SetDriverOccupancy(occupancy int) {
	if occupancy < 0 {
		occupancy = 0
	}
	e.mu.Lock()
	e.driverOccupancy = occupancy
	e.mu.Unlock()
}

func (e *Engine) restartSampling(ctx context.Context, role session.Role) {
	if ctx == nil {
		return
	}
	e.sampler.Restart(ctx, role)
}

func (e *Engine) handleFix(pos domain.Coordinate) {
	now := time.Now()

	e.mu.Lock()
	if e.self.Valid() && !e.lastFixAt.IsZero() {
		if dt := now.Sub(e.lastFixAt).Hours(); dt > 0 {
			e.driverSpeed = geo.DistanceKm(e.self, pos) / dt
		}
	}
	e.self = pos
	e.lastFixAt = now

	publish := e.session.CanPublish()
	update := domain.VehiclePosition{
		BusNumber: e.session.VehicleID(),
		Lat:       pos.Lat,
		Lng:       pos.Lng,
		Speed:     e.driverSpeed,
		Occupancy: e.driverOccupancy,
		Timestamp: now,
	}
	e.mu.Unlock()

	if publish {
		if err := e.publisher.PublishPosition(update); err != nil {
			// fire-and-forget: dropped updates are corrected by the next tick
			e.logger.Debug("position update dropped", "error", err)
		}
	}

	e.refreshView()
}

func (e *Engine) handleFixError(err error) {
	if errors.Is(err, geoloc.ErrPermissionDenied) {
		e.logger.Warn("location permission denied, continuing without position")
		return
	}
	e.logger.Debug("position fix unavailable", "error", err)
}

func (e *Engine) refreshView() {
	e.mu.Lock()
	st := view.State{
		Self:  e.self,
		Route: e.selectedRoute,
	}
	selected := e.selectedBus
	renderer := e.renderer
	e.mu.Unlock()

	st.Buses = e.fleet.Snapshot()
	if selected != "" {
		if rec, ok := e.fleet.Get(selected); ok {
			st.SelectedBus = rec
		}
	}

	if renderer != nil {
		renderer.Frame(view.Derive(st))
	}
}
