package path

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"backend-walkpath/internal/db"
	"backend-walkpath/internal/events"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	tagCacheKey = "walkpath:tags"
	tagCacheTTL = 10 * time.Minute
)

type Service struct {
	db        db.Querier
	cache     *redis.Client
	publisher events.Publisher
	logger    *zap.Logger
}

func NewService(q db.Querier, cache *redis.Client, publisher events.Publisher, logger *zap.Logger) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: q, cache: cache, publisher: publisher, logger: logger}
}

// Save persists a completed capture as one path plus its ordered detail
// rows in a single transaction. Nothing is written when validation fails,
// and any in-transaction failure rolls the whole path back.
func (s *Service) Save(ctx context.Context, input SaveInput) (int64, error) {
	if len(input.Coordinates) < 2 {
		pathSaveFailuresTotal.WithLabelValues("empty_route").Inc()
		return 0, ErrEmptyRoute
	}

	start := startPoint(input.Coordinates)
	if !validCoordinate(start.Lat, start.Lng) {
		pathSaveFailuresTotal.WithLabelValues("invalid_coordinate").Inc()
		return 0, ErrInvalidCoordinate
	}

	details := normalize(input.Coordinates)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		pathSaveFailuresTotal.WithLabelValues("unavailable").Inc()
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var pathNo int64
	var createdAt time.Time
	err = tx.QueryRow(ctx, `
		INSERT INTO paths
			(user_no, path_name, path_description, path_tag_no, path_image,
			 start_latitude, start_longitude, total_distance, estimated_time)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING path_no, created_date
	`, input.UserNo, nullable(input.Name), nullable(input.Description), input.TagNo,
		nullable(input.ImageRef), start.Lat, start.Lng, input.DistanceKm, input.EstimatedTimeMin).
		Scan(&pathNo, &createdAt)
	if err != nil {
		pathSaveFailuresTotal.WithLabelValues("transaction").Inc()
		return 0, fmt.Errorf("%w: %v", ErrTransaction, err)
	}

	roleIDs, err := roleMap(ctx, tx)
	if err != nil {
		pathSaveFailuresTotal.WithLabelValues("transaction").Inc()
		return 0, fmt.Errorf("%w: %v", ErrTransaction, err)
	}

	for _, d := range details {
		typeNo, ok := roleIDs[Role(d.Role)]
		if !ok {
			typeNo, ok = roleIDs[RoleWaypoint]
			if !ok {
				pathSaveFailuresTotal.WithLabelValues("transaction").Inc()
				return 0, fmt.Errorf("%w: unknown waypoint role %q", ErrTransaction, d.Role)
			}
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO path_details
				(path_no, latitude, longitude, path_type_no, waypoint_order, point_name)
			VALUES ($1,$2,$3,$4,$5,$6)
		`, pathNo, d.Lat, d.Lng, typeNo, d.Order, nullable(d.Name))
		if err != nil {
			pathSaveFailuresTotal.WithLabelValues("transaction").Inc()
			return 0, fmt.Errorf("%w: %v", ErrTransaction, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		pathSaveFailuresTotal.WithLabelValues("transaction").Inc()
		return 0, fmt.Errorf("%w: %v", ErrTransaction, err)
	}

	pathSavesTotal.Inc()

	evt := events.PathSaved{
		PathNo:           pathNo,
		UserNo:           input.UserNo,
		TotalDistanceKm:  input.DistanceKm,
		EstimatedTimeMin: input.EstimatedTimeMin,
		PointCount:       len(details),
		CreatedAt:        createdAt,
	}
	if err := s.publisher.PublishPathSaved(ctx, evt); err != nil {
		s.logger.Warn("path saved but event not published",
			zap.Int64("path_no", pathNo), zap.Error(err))
	}

	return pathNo, nil
}

// Load reconstructs one path: its scalar view plus every detail row in
// ascending waypoint order.
func (s *Service) Load(ctx context.Context, pathNo int64) (View, []Coordinate, error) {
	var view View
	err := s.db.QueryRow(ctx, `
		SELECT p.path_name, p.path_description, p.total_distance, p.estimated_time,
		       pt.path_tag_name, p.start_latitude, p.start_longitude, p.path_image
		FROM paths p
		LEFT JOIN path_tags pt ON p.path_tag_no = pt.path_tag_no
		WHERE p.path_no = $1
	`, pathNo).Scan(&view.PathName, &view.PathDescription, &view.TotalDistance,
		&view.EstimatedTime, &view.PathTagName, &view.StartLatitude,
		&view.StartLongitude, &view.PathImage)
	if errors.Is(err, pgx.ErrNoRows) {
		return View{}, nil, ErrNotFound
	}
	if err != nil {
		return View{}, nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	rows, err := s.db.Query(ctx, `
		SELECT pd.latitude, pd.longitude, pt.path_type_name, pd.waypoint_order, pd.point_name
		FROM path_details pd
		INNER JOIN path_types pt ON pd.path_type_no = pt.path_type_no
		WHERE pd.path_no = $1
		ORDER BY pd.waypoint_order
	`, pathNo)
	if err != nil {
		return View{}, nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	var coords []Coordinate
	for rows.Next() {
		var c Coordinate
		if err := rows.Scan(&c.Latitude, &c.Longitude, &c.Role, &c.Order, &c.Name); err != nil {
			return View{}, nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		coords = append(coords, c)
	}
	if err := rows.Err(); err != nil {
		return View{}, nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	pathLoadsTotal.Inc()
	return view, coords, nil
}

// MyPaths lists the user's saved paths, newest first.
func (s *Service) MyPaths(ctx context.Context, userNo int64) ([]Summary, error) {
	rows, err := s.db.Query(ctx, `
		SELECT p.path_no, p.path_name, p.path_description, p.total_distance,
		       p.estimated_time, p.created_date, pt.path_tag_name,
		       p.start_latitude, p.start_longitude, p.path_image
		FROM paths p
		LEFT JOIN path_tags pt ON p.path_tag_no = pt.path_tag_no
		WHERE p.user_no = $1
		ORDER BY p.created_date DESC
	`, userNo)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	var paths []Summary
	for rows.Next() {
		var p Summary
		if err := rows.Scan(&p.PathNo, &p.PathName, &p.PathDescription, &p.TotalDistance,
			&p.EstimatedTime, &p.CreatedDate, &p.PathTagName,
			&p.StartLatitude, &p.StartLongitude, &p.PathImage); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// Tags returns the tag reference list, served from the redis cache when
// one is configured.
func (s *Service) Tags(ctx context.Context) ([]Tag, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, tagCacheKey).Bytes(); err == nil {
			var tags []Tag
			if err := json.Unmarshal(cached, &tags); err == nil {
				return tags, nil
			}
		}
	}

	rows, err := s.db.Query(ctx, `
		SELECT path_tag_no, path_tag_name
		FROM path_tags
		ORDER BY path_tag_name
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	var tags []Tag
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.TagNo, &t.TagName); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if s.cache != nil {
		if payload, err := json.Marshal(tags); err == nil {
			if err := s.cache.Set(ctx, tagCacheKey, payload, tagCacheTTL).Err(); err != nil {
				s.logger.Warn("tag cache write failed", zap.Error(err))
			}
		}
	}
	return tags, nil
}

// startPoint picks the coordinate the path row denormalizes: the first
// explicit START entry, else the first of the sequence.
func startPoint(coords []CoordinateInput) CoordinateInput {
	for _, c := range coords {
		if Role(c.Role) == RoleStart {
			return c
		}
	}
	return coords[0]
}

func validCoordinate(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lng) || math.IsInf(lng, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// normalize resolves roles and orders for storage. Caller-supplied orders
// are honored only when they already form the dense sequence 1..N in input
// order; anything else is renumbered by position so the per-path order
// invariant always holds. Unknown role labels default to START/END at the
// sequence edges and WAYPOINT in between.
func normalize(coords []CoordinateInput) []CoordinateInput {
	out := make([]CoordinateInput, len(coords))
	copy(out, coords)

	dense := true
	for i := range out {
		if out[i].Order != i+1 {
			dense = false
			break
		}
	}
	if !dense {
		for i := range out {
			out[i].Order = i + 1
		}
	}

	for i := range out {
		switch Role(out[i].Role) {
		case RoleStart, RoleWaypoint, RoleEnd:
		default:
			switch i {
			case 0:
				out[i].Role = string(RoleStart)
			case len(out) - 1:
				out[i].Role = string(RoleEnd)
			default:
				out[i].Role = string(RoleWaypoint)
			}
		}
	}
	return out
}

func roleMap(ctx context.Context, tx pgx.Tx) (map[Role]int64, error) {
	rows, err := tx.Query(ctx, `SELECT path_type_no, path_type_name FROM path_types`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	roles := map[Role]int64{}
	for rows.Next() {
		var no int64
		var name string
		if err := rows.Scan(&no, &name); err != nil {
			return nil, err
		}
		roles[Role(name)] = no
	}
	return roles, rows.Err()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
