package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/richxcame/ridemeter/internal/billing"
	"github.com/richxcame/ridemeter/pkg/i18n"
)

type renderer struct {
	out  io.Writer
	lang string
	last string
}

func newRenderer(out io.Writer, lang string) *renderer {
	return &renderer{out: out, lang: i18n.NormalizeLang(lang)}
}

// Render writes the snapshot when its text changed since the last call
func (r *renderer) Render(snap billing.Snapshot) {
	line := r.format(snap)
	if line == r.last {
		return
	}
	r.last = line
	fmt.Fprintln(r.out, line)
}

func (r *renderer) format(snap billing.Snapshot) string {
	var parts []string
	switch snap.State {
	case billing.StateWaiting:
		parts = append(parts, i18n.Translate("meter.waiting", r.lang, clock(snap.WaitingRemainingSeconds)))
	case billing.StateBilling:
		parts = append(parts,
			i18n.Translate("meter.billing", r.lang, clock(snap.ElapsedSeconds)),
			i18n.Translate("meter.surcharge", r.lang, i18n.FormatAmount(snap.Surcharge, snap.Currency)),
		)
	case billing.StateSettled:
		parts = append(parts, i18n.Translate("meter.settled", r.lang, i18n.FormatAmount(snap.CurrentTotal, snap.Currency)))
	default:
		return string(snap.RideStatus)
	}
	if snap.Degraded {
		parts = append(parts, i18n.Translate("meter.degraded", r.lang))
	}
	return strings.Join(parts, " | ")
}

// clock formats seconds as h:mm:ss
func clock(seconds int64) string {
	d := time.Duration(seconds) * time.Second
	h := int64(d / time.Hour)
	m := int64(d%time.Hour) / int64(time.Minute)
	s := int64(d%time.Minute) / int64(time.Second)
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}
