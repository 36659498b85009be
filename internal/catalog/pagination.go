package catalog

import "strconv"

// PageSize is the backend's product page size.
const PageSize = 20

type Pager struct {
	Page       int
	TotalPages int
	HasPrev    bool
	HasNext    bool
	Pages      []int
}

func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func Paginate(page, count int) Pager {
	if page < 1 {
		page = 1
	}
	total := (count + PageSize - 1) / PageSize
	p := Pager{
		Page:       page,
		TotalPages: total,
		HasPrev:    page > 1,
		HasNext:    page < total,
	}
	for i := 1; i <= total; i++ {
		p.Pages = append(p.Pages, i)
	}
	return p
}
