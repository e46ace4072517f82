package calendar

import (
	"bytes"
	"html/template"

	"riverside/internal/model"
)

// HTMLView renders the calendar into the markup of its host container.
// It owns that subtree entirely; HTML returns the current markup.
type HTMLView struct {
	frame         Frame
	focused       model.Date
	selected      model.Date
	details       *Details
	announcements []string
}

var _ View = (*HTMLView)(nil)

// NewHTMLView returns an empty view; the controller renders into it on
// construction.
func NewHTMLView() *HTMLView {
	return &HTMLView{}
}

func (v *HTMLView) Render(f Frame) {
	v.frame = f
	v.focused = f.State.Focused
	v.selected = f.State.Selected
}

// Focus moves the roving tabindex: exactly one cell gets tabindex 0.
func (v *HTMLView) Focus(d model.Date) {
	v.focused = d
}

func (v *HTMLView) Select(d model.Date) {
	v.selected = d
}

func (v *HTMLView) ShowEvents(d Details) {
	v.details = &d
}

func (v *HTMLView) Announce(msg string) {
	v.announcements = append(v.announcements, msg)
}

// Frame returns the last rendered frame with the current focus and
// selection applied to its cells.
func (v *HTMLView) Frame() Frame {
	f := v.frame
	for i := range f.Grid.Cells {
		c := &f.Grid.Cells[i]
		c.Focused = c.Date.Equal(v.focused)
		c.Selected = !v.selected.IsZero() && c.Date.Equal(v.selected)
	}
	f.State.Focused = v.focused
	f.State.Selected = v.selected
	return f
}

// Details returns the open dialog content, or nil when the dialog is closed.
func (v *HTMLView) Details() *Details {
	return v.details
}

// Announcements returns messages for the live region, oldest first.
func (v *HTMLView) Announcements() []string {
	return append([]string(nil), v.announcements...)
}

// HTML renders the container markup.
func (v *HTMLView) HTML() (template.HTML, error) {
	f := v.Frame()
	data := struct {
		Frame         Frame
		DayNames      [GridColumns]string
		Details       *Details
		Announcements []string
	}{
		Frame:         f,
		DayNames:      DayNames,
		Details:       v.details,
		Announcements: v.announcements,
	}

	var buf bytes.Buffer
	if err := calendarTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

var calendarTmpl = template.Must(template.New("calendar").Funcs(template.FuncMap{
	"ariaLabel": AriaLabel,
	"dayClass":  dayClass,
}).Parse(calendarHTML))

func dayClass(c Cell) string {
	class := "calendar-day"
	if c.OtherMonth {
		class += " other-month"
	}
	if c.HasEvents {
		class += " has-events"
	}
	if c.Today {
		class += " today"
	}
	if c.Selected {
		class += " selected"
	}
	return class
}

const calendarHTML = `<div class="calendar" data-ready="true">
  <div class="calendar-header">
    <a class="calendar-nav-btn" id="prevMonth" href="?month={{.Frame.State.Current.Year}}-{{printf "%02d" .Frame.State.Current.Month}}&amp;action=prev" aria-label="Previous month">&lsaquo;</a>
    <h2 class="calendar-title" id="calendarTitle" aria-live="polite">{{.Frame.Title}}</h2>
    <a class="calendar-nav-btn" id="nextMonth" href="?month={{.Frame.State.Current.Year}}-{{printf "%02d" .Frame.State.Current.Month}}&amp;action=next" aria-label="Next month">&rsaquo;</a>
  </div>
  <div class="calendar-grid" role="grid" aria-labelledby="calendarTitle">
{{- range .DayNames}}
    <div class="calendar-day-header" role="columnheader">{{.}}</div>
{{- end}}
{{- range .Frame.Grid.Cells}}
    <button type="button" class="{{dayClass .}}" data-date="{{.Date}}" aria-label="{{ariaLabel .}}" tabindex="{{if .Focused}}0{{else}}-1{{end}}" role="gridcell">{{.Date.Day}}</button>
{{- end}}
  </div>
</div>
<div id="eventModal" class="modal" role="dialog" aria-labelledby="eventModalTitle" aria-hidden="{{if .Details}}false{{else}}true{{end}}">
  <div class="modal-content" tabindex="-1">
    <button type="button" class="modal-close" aria-label="Close event details">&times;</button>
    <div id="eventModalContent">
{{- with .Details}}
      <h3 id="eventModalTitle">{{.Heading}}</h3>
{{- if .Empty}}
      <p>{{.Message}}</p>
{{- else}}
      <div class="events-list">
{{- range .Events}}
        <div class="event-item">
          <h4>{{.Title}}</h4>
          <p><strong>Time:</strong> {{.Time}}</p>
          <p><strong>Description:</strong> {{.Description}}</p>
        </div>
{{- end}}
      </div>
{{- end}}
{{- end}}
    </div>
  </div>
</div>
<div class="sr-only" aria-live="polite" id="calendarAnnouncer">{{range .Announcements}}<p>{{.}}</p>{{end}}</div>
`
