// Package gallery holds the photo gallery items and a lightbox that pages
// through them.
package gallery

import "strings"

// AllCategories is the filter value that shows every item.
const AllCategories = "all"

type Item struct {
	Src         string `json:"src" yaml:"src"`
	Alt         string `json:"alt" yaml:"alt"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Category    string `json:"category" yaml:"category"`
}

// Lightbox is one viewer's state: the active filter and the open item.
// Each instance is independent.
type Lightbox struct {
	items   []Item
	visible []int // indexes into items, in order
	filter  string
	index   int // position in visible
	open    bool
}

func NewLightbox(items []Item) *Lightbox {
	lb := &Lightbox{items: append([]Item(nil), items...)}
	lb.Filter(AllCategories)
	return lb
}

// Filter shows only items in category ("all" or "" shows everything) and
// closes the lightbox.
func (lb *Lightbox) Filter(category string) []Item {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		category = AllCategories
	}
	lb.filter = category
	lb.visible = lb.visible[:0]
	for i, it := range lb.items {
		if category == AllCategories || strings.EqualFold(it.Category, category) {
			lb.visible = append(lb.visible, i)
		}
	}
	lb.index = 0
	lb.open = false
	return lb.Visible()
}

func (lb *Lightbox) Visible() []Item {
	out := make([]Item, 0, len(lb.visible))
	for _, i := range lb.visible {
		out = append(out, lb.items[i])
	}
	return out
}

func (lb *Lightbox) Category() string {
	return lb.filter
}

// Open shows the i-th visible item.
func (lb *Lightbox) Open(i int) (Item, bool) {
	if i < 0 || i >= len(lb.visible) {
		return Item{}, false
	}
	lb.index = i
	lb.open = true
	return lb.items[lb.visible[i]], true
}

func (lb *Lightbox) Close() {
	lb.open = false
}

func (lb *Lightbox) IsOpen() bool {
	return lb.open
}

// Index is the position of the open item among the visible ones.
func (lb *Lightbox) Index() int {
	return lb.index
}

// Current returns the open item.
func (lb *Lightbox) Current() (Item, bool) {
	if !lb.open || len(lb.visible) == 0 {
		return Item{}, false
	}
	return lb.items[lb.visible[lb.index]], true
}

// Next moves forward one item; it stops at the last one.
func (lb *Lightbox) Next() (Item, bool) {
	if lb.open && lb.index < len(lb.visible)-1 {
		lb.index++
	}
	return lb.Current()
}

// Prev moves back one item; it stops at the first one.
func (lb *Lightbox) Prev() (Item, bool) {
	if lb.open && lb.index > 0 {
		lb.index--
	}
	return lb.Current()
}

// HasNext and HasPrev drive the enabled state of the arrows.
func (lb *Lightbox) HasNext() bool { return lb.open && lb.index < len(lb.visible)-1 }
func (lb *Lightbox) HasPrev() bool { return lb.open && lb.index > 0 }

// DefaultItems is the gallery shipped with the site.
func DefaultItems() []Item {
	return []Item{
		{Src: "/assets/gallery/campus-quad.jpg", Alt: "Campus quad in autumn", Title: "Campus Quad", Description: "The heart of campus in the fall.", Category: "campus"},
		{Src: "/assets/gallery/library.jpg", Alt: "Library reading room", Title: "Library", Description: "Our main reading room, open late during exams.", Category: "campus"},
		{Src: "/assets/gallery/science-lab.jpg", Alt: "Students in the science lab", Title: "Science Lab", Description: "Hands-on chemistry in the new lab wing.", Category: "academics"},
		{Src: "/assets/gallery/lecture.jpg", Alt: "Lecture hall", Title: "Lecture Hall", Description: "Guest lecture series, spring term.", Category: "academics"},
		{Src: "/assets/gallery/soccer.jpg", Alt: "Soccer match", Title: "Varsity Soccer", Description: "Homecoming game under the lights.", Category: "sports"},
		{Src: "/assets/gallery/track.jpg", Alt: "Track meet", Title: "Track and Field", Description: "Regional championship relay.", Category: "sports"},
		{Src: "/assets/gallery/concert.jpg", Alt: "Spring concert", Title: "Spring Concert", Description: "Orchestra and choir in the main hall.", Category: "events"},
		{Src: "/assets/gallery/graduation.jpg", Alt: "Graduation ceremony", Title: "Graduation", Description: "Class of 2024 commencement.", Category: "events"},
	}
}
