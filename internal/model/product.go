package model

// ProductRecord is the in-memory aggregate produced by one extraction run
// and consumed by the repository. Every field is independently optional; the
// zero value is a valid (empty) record.
type ProductRecord struct {
	Title          string
	Color          string
	SSD            string
	Manufacturer   string
	Price          int
	PromoPrice     *int
	Images         []string
	Code           string
	NumReviews     int
	ScreenDiagonal float64
	Resolution     string

	// Characteristics maps group name -> attribute name -> value.
	// A group scraped with no readable pairs keeps an empty inner map.
	Characteristics map[string]map[string]string
}

func NewProductRecord() ProductRecord {
	return ProductRecord{Characteristics: make(map[string]map[string]string)}
}
