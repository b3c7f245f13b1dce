package services

const maxPageLimit = 100

// Page is a 1-based page number plus page size.
type Page struct {
	Number int
	Limit  int
}

// NewPage clamps client input: page < 1 becomes 1, limit < 1 becomes def.
func NewPage(number, limit, def int) Page {
	if number < 1 {
		number = 1
	}
	if limit < 1 {
		limit = def
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return Page{Number: number, Limit: limit}
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Limit
}

func (p Page) HasNext(total int64) bool {
	return int64(p.Number*p.Limit) < total
}
