package models

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"
)

// OrderRecord is one line item of the sales snapshot.
type OrderRecord struct {
	OrderID      string    `json:"order_id"`
	OrderDate    time.Time `json:"order_date"`
	ShipDate     time.Time `json:"ship_date"`
	ShipMode     string    `json:"ship_mode"`
	CustomerID   string    `json:"customer_id"`
	CustomerName string    `json:"customer_name"`
	Segment      string    `json:"segment"`
	Country      string    `json:"country"`
	City         string    `json:"city"`
	State        string    `json:"state"`
	PostalCode   string    `json:"postal_code"`
	Region       string    `json:"region"`
	ProductID    string    `json:"product_id"`
	Category     string    `json:"category"`
	SubCategory  string    `json:"sub_category"`
	ProductName  string    `json:"product_name"`
	Sales        float64   `json:"sales"`
	Quantity     int       `json:"quantity"`
	Discount     float64   `json:"discount"`
	Profit       float64   `json:"profit"`

	// Derived after load.
	OrderDay   string `json:"order_day"`
	OrderMonth string `json:"order_month"`
	OrderYear  int    `json:"order_year"`
	StateCode  string `json:"state_code,omitempty"`
}

// Dimension names a categorical column records can be grouped by.
type Dimension string

const (
	DimProductID    Dimension = "Product_ID"
	DimCustomerID   Dimension = "Customer_ID"
	DimCustomerName Dimension = "Customer_Name"
	DimCity         Dimension = "City"
	DimState        Dimension = "State"
	DimStateCode    Dimension = "State_code"
	DimCategory     Dimension = "Category"
	DimSubCategory  Dimension = "Sub_Category"
	DimOrderDay     Dimension = "Order_Day"
	DimOrderMonth   Dimension = "Order_Month"
	DimOrderYear    Dimension = "Order_Year"
	DimRegion       Dimension = "Region"
	DimSegment      Dimension = "Segment"
	DimShipMode     Dimension = "Ship_Mode"
)

var dimensions = []Dimension{
	DimProductID, DimCustomerID, DimCustomerName, DimCity, DimState, DimStateCode,
	DimCategory, DimSubCategory, DimOrderDay, DimOrderMonth, DimOrderYear,
	DimRegion, DimSegment, DimShipMode,
}

// Dimensions returns every groupable column.
func Dimensions() []Dimension {
	return slices.Clone(dimensions)
}

var (
	ErrUnknownDimension = errors.New("unknown dimension")
	ErrUnknownMetric    = errors.New("unknown metric")
)

// ParseDimension accepts a CSV column name such as "Sub_Category".
func ParseDimension(s string) (Dimension, error) {
	for _, d := range dimensions {
		if string(d) == s {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDimension, s)
}

// Metric names a numeric column that is summed when grouping.
type Metric string

const (
	MetricQuantity Metric = "Quantity"
	MetricDiscount Metric = "Discount"
	MetricSales    Metric = "Sales"
	MetricProfit   Metric = "Profit"
)

var metrics = []Metric{MetricQuantity, MetricDiscount, MetricSales, MetricProfit}

// Metrics returns every summable column in table order.
func Metrics() []Metric {
	return slices.Clone(metrics)
}

func ParseMetric(s string) (Metric, error) {
	for _, m := range metrics {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMetric, s)
}

// Key returns the record's value for a categorical dimension.
func (r OrderRecord) Key(d Dimension) string {
	switch d {
	case DimProductID:
		return r.ProductID
	case DimCustomerID:
		return r.CustomerID
	case DimCustomerName:
		return r.CustomerName
	case DimCity:
		return r.City
	case DimState:
		return r.State
	case DimStateCode:
		return r.StateCode
	case DimCategory:
		return r.Category
	case DimSubCategory:
		return r.SubCategory
	case DimOrderDay:
		return r.OrderDay
	case DimOrderMonth:
		return r.OrderMonth
	case DimOrderYear:
		return strconv.Itoa(r.OrderYear)
	case DimRegion:
		return r.Region
	case DimSegment:
		return r.Segment
	case DimShipMode:
		return r.ShipMode
	default:
		return ""
	}
}

// Value returns the record's value for a numeric metric.
func (r OrderRecord) Value(m Metric) float64 {
	switch m {
	case MetricQuantity:
		return float64(r.Quantity)
	case MetricDiscount:
		return r.Discount
	case MetricSales:
		return r.Sales
	case MetricProfit:
		return r.Profit
	default:
		return 0
	}
}

// Dataset is the normalized, read-only snapshot produced by the loader.
type Dataset struct {
	Records        []OrderRecord
	Years          []int
	Fingerprint    uint64
	UnmappedStates int
}

// HasYear reports whether any record was ordered in year.
func (d *Dataset) HasYear(year int) bool {
	_, found := slices.BinarySearch(d.Years, year)
	return found
}

// ForYear returns the records ordered in year, in dataset order.
func (d *Dataset) ForYear(year int) []OrderRecord {
	return FilterYear(d.Records, year)
}

// FilterYear returns the records whose derived order year equals year.
func FilterYear(records []OrderRecord, year int) []OrderRecord {
	out := make([]OrderRecord, 0, len(records)/4)
	for _, r := range records {
		if r.OrderYear == year {
			out = append(out, r)
		}
	}
	return out
}

// YearsOf returns the sorted distinct order years of records.
func YearsOf(records []OrderRecord) []int {
	seen := make(map[int]struct{})
	years := make([]int, 0, 4)
	for _, r := range records {
		if _, ok := seen[r.OrderYear]; ok {
			continue
		}
		seen[r.OrderYear] = struct{}{}
		years = append(years, r.OrderYear)
	}
	slices.Sort(years)
	return years
}
