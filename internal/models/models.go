package models

type Health struct {
	Status string   `json:"status"`
	Loaded []string `json:"loaded,omitempty"`
}

type FluidList struct {
	Fluids []string `json:"fluids"`
	Loaded []string `json:"loaded"`
}

type FluidSummary struct {
	Fluid     string   `json:"fluid"`
	KeyColumn string   `json:"key_column"`
	Columns   []string `json:"columns"`
	Rows      int      `json:"rows"`
	Min       float64  `json:"min"`
	Max       float64  `json:"max"`
	Checksum  string   `json:"checksum"`
}

// one evaluated row, keyed by column name
type Properties struct {
	Fluid      string             `json:"fluid"`
	Strategy   string             `json:"strategy"`
	Enthalpy   float64            `json:"enthalpy"`
	Properties map[string]float64 `json:"properties"`
}

type SweepPoint struct {
	Enthalpy float64   `json:"enthalpy"`
	Values   []float64 `json:"values"`
}

// values in each point follow Columns
type Sweep struct {
	Fluid   string       `json:"fluid"`
	Bounds  string       `json:"bounds"`
	Columns []string     `json:"columns"`
	Points  []SweepPoint `json:"points"`
}

// body of POST /api/sessions
type SessionRequest struct {
	Fluid    string   `json:"fluid" validate:"required"`
	Strategy string   `json:"strategy" validate:"omitempty,oneof=table external"`
	Bounds   string   `json:"bounds" validate:"omitempty,oneof=strict clamp extrapolate"`
	Pressure *float64 `json:"pressure,omitempty" validate:"omitempty,gt=0"`
}

// Enthalpy is set after any accepted enthalpy; Properties only after a successful one
type Session struct {
	ID         string             `json:"id"`
	Fluid      string             `json:"fluid"`
	Strategy   string             `json:"strategy"`
	Enthalpy   *float64           `json:"enthalpy,omitempty"`
	Properties map[string]float64 `json:"properties,omitempty"`
}

// body of PUT /api/sessions/:id/enthalpy
type EnthalpyRequest struct {
	Enthalpy *float64 `json:"enthalpy" validate:"required"`
}

// physics request bodies, SI units
type OverallHTCRequest struct {
	HTC1  float64 `json:"htc1"`
	HTC2  float64 `json:"htc2"`
	RWall float64 `json:"r_wall"`
}

type WallResistanceRequest struct {
	Thickness float64 `json:"thickness"`
	K         float64 `json:"k"`
}

type HeatLoadRequest struct {
	U    float64 `json:"u"`
	Area float64 `json:"area"`
	DT1  float64 `json:"dt1"`
	DT2  float64 `json:"dt2"`
}

type TubeAreaRequest struct {
	Length float64 `json:"length"`
	OD     float64 `json:"od"`
}

type Scalar struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}
