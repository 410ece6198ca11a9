// Package display renders polls, laws and results as Telegram HTML.
package display

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/microvote/microvote/internal/clock"
	"github.com/microvote/microvote/internal/duration"
	"github.com/microvote/microvote/internal/models"
	"github.com/microvote/microvote/internal/quorum"
	"github.com/microvote/microvote/internal/service"
)

// partials are the eighth-block characters used for the fractional cell of a
// score bar.
var partials = []string{" ", "▏", "▎", "▍", "▌", "▋", "▊", "▉"}

// Bar renders fraction (0..1) as a fixed-width unicode horizontal bar.
func Bar(width int, fraction float64) string {
	fraction = math.Min(1, math.Max(fraction, 0))
	whole := int(fraction * float64(width))
	part := int(math.Mod(fraction*float64(width), 1) * 8)
	end := width - whole - 1

	var b strings.Builder
	b.WriteString(strings.Repeat("▉", whole))
	if end >= 0 {
		b.WriteString(partials[part])
		b.WriteString(strings.Repeat(" ", end))
	}
	return b.String()
}

// Show selects which parts of a poll to render.
type Show struct {
	Options bool
	Desc    bool
	Amounts bool
}

// PollText renders a poll as HTML. With Amounts set, options are sorted by
// their amount (a score average or a fresh ballot) and prefixed with a bar;
// otherwise they appear in ballot order, numbered.
func PollText(poll *models.Poll, show Show, amounts []float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<code>[%s]</code> <b>%s</b>", poll.DisplayID(), html(poll.Name))
	if show.Desc {
		fmt.Fprintf(&b, "\n%s", html(poll.Desc))
	}
	if !show.Options {
		return b.String()
	}

	type row struct {
		text   string
		num    int
		amount float64
	}
	rows := make([]row, len(poll.Options))
	for i, opt := range poll.Options {
		rows[i] = row{text: opt, num: i + 1}
		if show.Amounts && i < len(amounts) {
			rows[i].amount = amounts[i]
		}
	}
	if show.Amounts {
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].amount > rows[j].amount })
	}
	for _, r := range rows {
		if show.Amounts {
			fmt.Fprintf(&b, "\n<code>%s %.2f </code> %d. %s",
				Bar(poll.Width, r.amount/float64(poll.Width)), r.amount, r.num, html(r.text))
		} else {
			fmt.Fprintf(&b, "\n<code> </code> %d. %s", r.num, html(r.text))
		}
	}
	return b.String()
}

// PollStatusLine describes how long a poll has left, or how long ago it
// closed.
func PollStatusLine(poll *models.Poll, now int64) string {
	if poll.IsOpen(now) {
		return fmt.Sprintf("Open, closes in %s", duration.Closest(poll.ClosesAt()-now))
	}
	return fmt.Sprintf("Closed %s ago", duration.Closest(now-poll.ClosesAt()))
}

// ResultText renders a poll's aggregated result: options with score bars,
// turnout and the quorum verdict.
func ResultText(res service.PollResult) string {
	poll := res.Poll
	required := quorum.Required(poll.Quorum, poll.ChatPop)
	reached := "Did not reach"
	if res.ReachedQuorum {
		reached = "Reached"
	}
	return fmt.Sprintf("%s\n<b>%s, %.2f%% turnout</b>\n<b>%s</b> its quorum of %d with %d potential voters.",
		PollText(poll, Show{Options: true, Desc: true, Amounts: true}, res.Averages),
		Plural(res.NumVotes, "vote"), res.Turnout(), reached, required, poll.ChatPop)
}

// LawText renders a law with its display id, name and body.
func LawText(law *models.Law) string {
	return fmt.Sprintf("<code>(%s)</code> <b>%s</b>\n%s",
		law.DisplayID(), html(law.Name), html(law.Body))
}

// LawResultText renders a law's resolved status above the law itself. The
// approval percentage appears only for decided laws.
func LawResultText(res service.LawResult) string {
	head := fmt.Sprintf("<b>%s</b>", res.Status)
	if res.Status == service.LawAccepted || res.Status == service.LawRejected {
		head = fmt.Sprintf("<b>%s</b> at %.2f%% approval.", res.Status, res.Percent)
	}
	return head + "\n" + LawText(res.Law)
}

// Plural renders a count with a naively pluralised noun: "1 vote", "2 votes".
func Plural(n int, word string) string {
	if n != 1 {
		word += "s"
	}
	return fmt.Sprintf("%d %s", n, word)
}

// Timestamp renders an entity-id second count as a UTC date for display.
func Timestamp(sec int64) string {
	return clock.Time(sec).Format("2006-01-02 15:04 UTC")
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func html(s string) string {
	return htmlEscaper.Replace(s)
}
