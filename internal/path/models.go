package path

import "time"

// Role classifies a stored waypoint. The label is descriptive metadata;
// traversal order is always waypoint_order.
type Role string

const (
	RoleStart    Role = "START"
	RoleWaypoint Role = "WAYPOINT"
	RoleEnd      Role = "END"
)

// CoordinateInput is one entry of the coordinates array sent by the
// recording client.
type CoordinateInput struct {
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Role  string  `json:"type"`
	Order int     `json:"order,omitempty"`
	Name  string  `json:"name,omitempty"`
}

// SaveInput is a completed capture ready for persistence.
type SaveInput struct {
	UserNo           int64
	Name             string
	Description      string
	TagNo            *int64
	Coordinates      []CoordinateInput
	DistanceKm       float64
	EstimatedTimeMin float64
	ImageRef         string
}

// View carries the scalar fields of a stored path plus its joined tag
// name, shaped for the details response.
type View struct {
	PathName        *string `json:"pathName"`
	PathDescription *string `json:"pathDescription"`
	TotalDistance   float64 `json:"totalDistance"`
	EstimatedTime   float64 `json:"estimatedTime"`
	PathTagName     *string `json:"pathTagName"`
	StartLatitude   float64 `json:"startLatitude"`
	StartLongitude  float64 `json:"startLongitude"`
	PathImage       *string `json:"pathImage"`
}

// Coordinate is one reconstructed waypoint row.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Role      string  `json:"type"`
	Order     int     `json:"order"`
	Name      *string `json:"name"`
}

// Summary is one entry of the my-paths listing.
type Summary struct {
	PathNo          int64     `json:"pathNo"`
	PathName        *string   `json:"pathName"`
	PathDescription *string   `json:"pathDescription"`
	TotalDistance   float64   `json:"totalDistance"`
	EstimatedTime   float64   `json:"estimatedTime"`
	CreatedDate     time.Time `json:"createdDate"`
	PathTagName     *string   `json:"pathTagName"`
	StartLatitude   float64   `json:"startLatitude"`
	StartLongitude  float64   `json:"startLongitude"`
	PathImage       *string   `json:"pathImage"`
}

// Tag is read-only reference data for path classification.
type Tag struct {
	TagNo   int64  `json:"tagNo"`
	TagName string `json:"tagName"`
}
