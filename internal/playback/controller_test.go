package playback_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/quakeplay/internal/playback"
	"github.com/san-kum/quakeplay/internal/quake"
)

const day = playback.StepMs

var _ = Describe("Controller", func() {
	var (
		sched  *playback.ManualScheduler
		now    time.Time
		events *quake.Collection
		opts   playback.Options
	)

	clock := func() time.Time { return now }

	newController := func() *playback.Controller {
		return playback.New(events, opts)
	}

	BeforeEach(func() {
		sched = playback.NewManualScheduler()
		now = time.UnixMilli(300)
		events = quake.NewCollection([]quake.Event{
			{ID: "b", OccurredAtMs: 200},
			{ID: "a", OccurredAtMs: 100},
			{ID: "c", OccurredAtMs: 300},
		})
		opts = playback.DefaultOptions()
		opts.Clock = clock
		opts.Scheduler = sched
	})

	Describe("initial state", func() {
		It("starts stopped at the earliest event", func() {
			c := newController()
			st := c.State()
			Expect(st.Playing).To(BeFalse())
			Expect(st.CursorMs).To(Equal(int64(100)))
			Expect(st.SpeedMs).To(Equal(playback.DefaultSpeedMs))
			Expect(sched.Active()).To(Equal(0))
		})

		It("falls back to now for an empty collection", func() {
			events = quake.Empty()
			c := newController()
			Expect(c.State().CursorMs).To(Equal(int64(300)))
			Expect(c.Visible()).To(BeEmpty())
		})

		It("derives the date labels once from the data bounds", func() {
			now = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
			events = quake.NewCollection([]quake.Event{
				{OccurredAtMs: time.Date(2024, 2, 9, 5, 0, 0, 0, time.UTC).UnixMilli()},
			})
			c := newController()
			labels := c.Labels()
			Expect(labels.Start).To(Equal("2024-02-09"))
			Expect(labels.End).To(Equal("2024-03-10"))
			Expect(labels.Current).To(Equal("2024-02-09"))
			Expect(labels.Speed).To(Equal("Normal"))

			now = now.Add(48 * time.Hour)
			Expect(c.Labels().End).To(Equal("2024-03-10"))
		})

		It("opens a window at the earliest event in window mode", func() {
			opts.Mode = playback.Window
			opts.WindowMs = 2 * day
			c := newController()
			st := c.State()
			Expect(st.WindowStartMs).To(Equal(int64(100)))
			Expect(st.WindowEndMs).To(Equal(int64(100) + 2*day))
			Expect(st.CursorMs).To(Equal(st.WindowEndMs))
		})
	})

	Describe("toggle", func() {
		It("starts and stops exactly one ticker", func() {
			c := newController()
			c.Toggle()
			Expect(c.State().Playing).To(BeTrue())
			Expect(sched.Active()).To(Equal(1))
			Expect(sched.Intervals()).To(ConsistOf(time.Second))

			c.Toggle()
			Expect(c.State().Playing).To(BeFalse())
			Expect(sched.Active()).To(Equal(0))
		})

		It("keeps a single tick source when play is requested twice", func() {
			c := newController()
			c.Play()
			c.Play()
			Expect(sched.Active()).To(Equal(1))
			Expect(sched.Fire(now)).To(Equal(1))
		})

		It("never leaves two tickers after stop/start cycles", func() {
			c := newController()
			for i := 0; i < 5; i++ {
				c.Play()
				c.Pause()
				c.Play()
			}
			Expect(sched.Active()).To(Equal(1))
		})
	})

	Describe("stop", func() {
		It("is idempotent", func() {
			c := newController()
			c.Play()
			c.Pause()
			once := c.State()
			c.Pause()
			Expect(c.State()).To(Equal(once))
			Expect(sched.Active()).To(Equal(0))
		})

		It("is a no-op when never started", func() {
			c := newController()
			before := c.State()
			c.Pause()
			Expect(c.State()).To(Equal(before))
		})
	})

	Describe("tick", func() {
		It("advances the cursor one day", func() {
			now = time.UnixMilli(100 + 10*day)
			c := newController()
			c.Play()
			sched.Fire(now)
			Expect(c.State().CursorMs).To(Equal(int64(100) + day))
			Expect(c.State().Playing).To(BeTrue())
		})

		It("loops back to the earliest event when looping", func() {
			opts.Looping = true
			c := newController()
			c.Play()
			sched.Fire(now)
			st := c.State()
			Expect(st.CursorMs).To(Equal(int64(100)))
			Expect(st.Playing).To(BeTrue())
			Expect(sched.Active()).To(Equal(1))
		})

		It("stops past now when not looping", func() {
			c := newController()
			c.Play()
			sched.Fire(now)
			st := c.State()
			Expect(st.Playing).To(BeFalse())
			Expect(st.CursorMs).To(BeNumerically(">", int64(300)))
			Expect(sched.Active()).To(Equal(0))
		})

		It("ignores ticks from a cancelled handle", func() {
			var stale func(time.Time)
			opts.Scheduler = &capturingScheduler{inner: sched, last: &stale}
			c := newController()
			c.Play()
			c.Pause()
			before := c.State()
			stale(now.Add(time.Hour))
			Expect(c.State()).To(Equal(before))
		})

		It("slides both window bounds together", func() {
			now = time.UnixMilli(100 + 30*day)
			opts.Mode = playback.Window
			opts.WindowMs = 3 * day
			c := newController()
			c.Play()
			sched.Fire(now)
			sched.Fire(now)
			st := c.State()
			Expect(st.WindowStartMs).To(Equal(int64(100) + 2*day))
			Expect(st.WindowEndMs).To(Equal(int64(100) + 5*day))
			Expect(st.WindowEndMs - st.WindowStartMs).To(Equal(3 * day))
		})

		It("resets the window to the initial span on loop", func() {
			now = time.UnixMilli(100 + 4*day)
			opts.Mode = playback.Window
			opts.WindowMs = 3 * day
			opts.Looping = true
			c := newController()
			c.Play()
			sched.Fire(now)
			Expect(c.State().WindowEndMs).To(Equal(int64(100) + 4*day))
			sched.Fire(now)
			st := c.State()
			Expect(st.WindowStartMs).To(Equal(int64(100)))
			Expect(st.WindowEndMs).To(Equal(int64(100) + 3*day))
			Expect(st.Playing).To(BeTrue())
		})

		It("stops instead of looping when the data fits in one window", func() {
			now = time.UnixMilli(100 + 2*day)
			opts.Mode = playback.Window
			opts.WindowMs = 3 * day
			opts.Looping = true
			c := newController()
			c.Play()
			sched.Fire(now)
			st := c.State()
			Expect(st.Playing).To(BeFalse())
			Expect(sched.Active()).To(Equal(0))
			Expect(st.WindowEndMs).To(Equal(now.UnixMilli()))
			Expect(st.WindowEndMs - st.WindowStartMs).To(Equal(3 * day))
			Expect(c.Visible()).To(HaveLen(3))
		})

		It("stops a looping window over an empty collection", func() {
			events = quake.Empty()
			opts.Mode = playback.Window
			opts.Looping = true
			c := newController()
			c.Play()
			sched.Fire(now)
			Expect(c.State().Playing).To(BeFalse())
			Expect(c.State().CursorMs).To(Equal(now.UnixMilli()))
		})

		It("steps by hand without a ticker", func() {
			now = time.UnixMilli(100 + 10*day)
			c := newController()
			c.Step()
			Expect(c.State().CursorMs).To(Equal(int64(100) + day))
			Expect(sched.Started()).To(Equal(0))
		})
	})

	Describe("speed", func() {
		It("applies to future ticks only", func() {
			now = time.UnixMilli(100 + 10*day)
			c := newController()
			c.Play()
			c.SetSpeed(250)
			Expect(c.State().SpeedMs).To(Equal(int64(250)))
			// the in-flight ticker keeps its old interval until it fires
			Expect(sched.Intervals()).To(ConsistOf(time.Second))

			sched.Fire(now)
			Expect(sched.Intervals()).To(ConsistOf(250 * time.Millisecond))
			Expect(sched.Started()).To(Equal(1))
		})

		It("is used when playback next starts", func() {
			c := newController()
			c.SetSpeed(1500)
			c.Play()
			Expect(sched.Intervals()).To(ConsistOf(1500 * time.Millisecond))
			Expect(c.Labels().Speed).To(Equal("Slow"))
		})

		It("never drops below the minimum interval", func() {
			c := newController()
			c.SetSpeed(0)
			Expect(c.State().SpeedMs).To(Equal(playback.MinSpeedMs))
		})
	})

	Describe("scrub", func() {
		It("moves the cursor without starting playback", func() {
			c := newController()
			c.ScrubTo(250)
			st := c.State()
			Expect(st.CursorMs).To(Equal(int64(250)))
			Expect(st.Playing).To(BeFalse())
			Expect(sched.Active()).To(Equal(0))

			ids := []string{}
			for _, e := range c.Visible() {
				ids = append(ids, e.ID)
			}
			Expect(ids).To(Equal([]string{"b", "a"}))
		})

		It("does not stop running playback", func() {
			c := newController()
			c.Play()
			c.ScrubTo(150)
			Expect(c.State().Playing).To(BeTrue())
			Expect(sched.Active()).To(Equal(1))
		})

		It("anchors a window to days ago in window mode", func() {
			now = time.UnixMilli(30 * day)
			opts.Mode = playback.Window
			events = quake.NewCollection([]quake.Event{
				{ID: "old", OccurredAtMs: now.UnixMilli() - 8*day},
				{ID: "edge", OccurredAtMs: now.UnixMilli() - 7*day},
				{ID: "new", OccurredAtMs: now.UnixMilli() - day},
			})
			c := newController()
			c.ScrubDaysAgo(7)
			st := c.State()
			Expect(st.WindowStartMs).To(Equal(now.UnixMilli() - 7*day))
			Expect(st.WindowEndMs).To(Equal(now.UnixMilli()))

			ids := []string{}
			for _, e := range c.Visible() {
				ids = append(ids, e.ID)
			}
			Expect(ids).To(Equal([]string{"edge", "new"}))
			Expect(c.Labels().Start).To(Equal(playback.FormatDate(now.UnixMilli() - 7*day)))
		})

		It("puts the cursor days ago in cumulative mode", func() {
			now = time.UnixMilli(30 * day)
			c := newController()
			c.ScrubDaysAgo(3)
			Expect(c.State().CursorMs).To(Equal(27 * day))
		})
	})

	Describe("mode switch", func() {
		It("builds a window ending at the cursor", func() {
			opts.WindowMs = day
			c := newController()
			c.ScrubTo(5 * day)
			c.SetMode(playback.Window)
			st := c.State()
			Expect(st.WindowEndMs).To(Equal(5 * day))
			Expect(st.WindowStartMs).To(Equal(4 * day))

			c.SetMode(playback.Cumulative)
			st = c.State()
			Expect(st.WindowStartMs).To(BeZero())
			Expect(st.CursorMs).To(Equal(5 * day))
		})
	})

	Describe("observers", func() {
		It("are notified on every change until unsubscribed", func() {
			c := newController()
			var seen []playback.State
			cancel := c.Subscribe(func(st playback.State) { seen = append(seen, st) })
			c.Play()
			c.SetLoop(true)
			Expect(seen).To(HaveLen(2))
			Expect(seen[1].Looping).To(BeTrue())

			cancel()
			c.Pause()
			Expect(seen).To(HaveLen(2))
		})

		It("may call back into the controller", func() {
			c := newController()
			var labels playback.Labels
			c.Subscribe(func(playback.State) { labels = c.Labels() })
			c.ScrubTo(5 * day)
			Expect(labels.Current).To(Equal(playback.FormatDate(5 * day)))
		})
	})
})

var _ = Describe("Mode", func() {
	It("parses known names", func() {
		m, err := playback.ParseMode("window")
		Expect(err).NotTo(HaveOccurred())
		Expect(m).To(Equal(playback.Window))

		m, err = playback.ParseMode("")
		Expect(err).NotTo(HaveOccurred())
		Expect(m).To(Equal(playback.Cumulative))

		_, err = playback.ParseMode("absolute")
		Expect(err).To(HaveOccurred())
	})

	It("round-trips through text", func() {
		var m playback.Mode
		Expect(m.UnmarshalText([]byte("sliding"))).To(Succeed())
		b, err := m.MarshalText()
		Expect(err).NotTo(HaveOccurred())
		Expect(string(b)).To(Equal("window"))
	})
})

var _ = Describe("SpeedLabel", func() {
	DescribeTable("buckets",
		func(ms int64, label string) {
			Expect(playback.SpeedLabel(ms)).To(Equal(label))
		},
		Entry("fast", int64(100), "Fast"),
		Entry("fast edge", int64(749), "Fast"),
		Entry("normal low", int64(750), "Normal"),
		Entry("normal high", int64(1250), "Normal"),
		Entry("slow", int64(1251), "Slow"),
	)
})

type capturingScheduler struct {
	inner playback.Scheduler
	last  *func(time.Time)
}

func (s *capturingScheduler) Every(d time.Duration, fn func(time.Time)) playback.Ticker {
	*s.last = fn
	return s.inner.Every(d, fn)
}
