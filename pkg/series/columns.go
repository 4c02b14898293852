package series

// ColumnMap maps the logical OHLCV fields to physical column names in an
// external table (CSV header, database columns). It is resolved once when a
// series is loaded; the matching engine itself never sees column names.
type ColumnMap struct {
	Timestamp string `yaml:"timestamp"`
	Open      string `yaml:"open"`
	High      string `yaml:"high"`
	Low       string `yaml:"low"`
	Close     string `yaml:"close"`
	Volume    string `yaml:"volume"`
}

// DefaultColumnMap returns the conventional lowercase column names
func DefaultColumnMap() ColumnMap {
	return ColumnMap{
		Timestamp: "date",
		Open:      "open",
		High:      "high",
		Low:       "low",
		Close:     "close",
		Volume:    "volume",
	}
}

// WithDefaults fills any unset field from DefaultColumnMap
func (m ColumnMap) WithDefaults() ColumnMap {
	def := DefaultColumnMap()
	if m.Timestamp == "" {
		m.Timestamp = def.Timestamp
	}
	if m.Open == "" {
		m.Open = def.Open
	}
	if m.High == "" {
		m.High = def.High
	}
	if m.Low == "" {
		m.Low = def.Low
	}
	if m.Close == "" {
		m.Close = def.Close
	}
	if m.Volume == "" {
		m.Volume = def.Volume
	}
	return m
}
