package watcher

// Signals are the hype sources a trade can be attributed to.
var Signals = []string{
	"🔴 Twitter Trend Detected",
	"🔵 TikTok Viral Signal",
	"🟢 Reddit Hype Building",
	"🟡 Influencer Mention",
	"🟣 Community Pump Signal",
	"⚫️ AI Pattern Recognition",
}

func (w *Watcher) drawSignal() string {
	return Signals[w.rng.IntN(len(Signals))]
}
