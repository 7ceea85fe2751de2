package rewrite

import (
	"fmt"
	"strings"

	"github.com/starford/tasksort/internal/models"
	"github.com/starford/tasksort/internal/sorting"
	"github.com/starford/tasksort/internal/tasks"
)

var bucketHeadings = map[models.ParagraphType]string{
	models.TypeOpen:      "Open Tasks",
	models.TypeScheduled: "Scheduled Tasks",
	models.TypeDone:      "Completed Tasks",
	models.TypeCancelled: "Cancelled Tasks",
}

// groupPrefix is prepended to subheading values so they read like the
// annotation they came from.
func groupPrefix(field string) string {
	switch field {
	case "hashtags":
		return "#"
	case "mentions":
		return "@"
	}
	return ""
}

// groupLabel names the subheading for t. Tasks without a value, including
// those without a priority, fall under "Other".
func groupLabel(t tasks.Task, group string) string {
	v, ok := sorting.Value(t, group)
	if !ok || (group == "priority" && v == tasks.NoPriority) {
		return "Other"
	}
	return groupPrefix(group) + fmt.Sprint(v)
}

// renderBucket builds the single multi-line string written for one bucket.
func renderBucket(b *bucket, opts Options) string {
	var lines []string
	if opts.IncludeHeading != nil && *opts.IncludeHeading {
		lines = append(lines, strings.Repeat("#", opts.HeadingLevel)+" "+bucketHeadings[b.typ])
	}

	group := ""
	if opts.Subheadings != nil && *opts.Subheadings {
		if keys := sorting.ParseKeys(opts.Fields); len(keys) > 0 {
			group = keys[0].Field
		}
	}
	subMarker := strings.Repeat("#", opts.HeadingLevel+1) + " "
	last, started := "", false
	for _, t := range b.tasks {
		if group != "" {
			label := groupLabel(t, group)
			if !started || label != last {
				lines = append(lines, subMarker+label)
				last, started = label, true
			}
		}
		lines = append(lines, t.RawContent)
	}

	if opts.Separator {
		lines = append(lines, "---")
	}
	return strings.Join(lines, "\n")
}
