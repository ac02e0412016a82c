package sim_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/odetrace/internal/dynamo"
	"github.com/san-kum/odetrace/internal/expr"
	"github.com/san-kum/odetrace/internal/integrators"
	"github.com/san-kum/odetrace/internal/sim"
)

func slope(src string) *expr.Formula { return expr.MustCompile(src, "x", "y") }

func exact(src string) *expr.Formula { return expr.MustCompile(src, "x") }

var _ = Describe("Simulator", func() {
	var growth dynamo.Request

	BeforeEach(func() {
		growth = dynamo.Request{X0: 0, Y0: 1, H: 0.1, XEnd: 1, Slope: slope("y"), Exact: exact("exp(x)")}
	})

	Describe("step count", func() {
		DescribeTable("produces ceil((x_end - x0) / h) + 1 records",
			func(x0, xEnd, h float64, want int) {
				req := dynamo.Request{X0: x0, Y0: 0, H: h, XEnd: xEnd, Slope: slope("1")}
				trace, err := sim.New(integrators.NewRK4()).Solve(req)
				Expect(err).NotTo(HaveOccurred())
				Expect(trace.Len()).To(Equal(want + 1))
				Expect(trace.StepCount).To(Equal(want))
			},
			Entry("exact division", 0.0, 1.0, 0.1, 10),
			Entry("ratio just above an integer", 0.0, 1.1, 0.1, 12),
			Entry("partial final step", 0.0, 1.0, 0.3, 4),
			Entry("negative direction", 1.0, 0.0, -0.25, 4),
			Entry("empty interval", 2.0, 2.0, 0.5, 0),
			Entry("step pointing away from x_end", 0.0, 1.0, -0.1, 10),
		)

		It("matches the ceiling of the computed ratio", func() {
			for _, c := range [][3]float64{
				{0, 1.1, 0.1}, {0, 0.3, 0.1}, {-1, 2.7, 0.3}, {0, 6.4, 0.2}, {5, -1, -0.7}, {0, 1, 1.0 / 3},
			} {
				x0, xEnd, h := c[0], c[1], c[2]
				want := int(math.Ceil(math.Abs(xEnd-x0) / math.Abs(h)))
				n, ok := dynamo.StepCount(x0, xEnd, h)
				Expect(ok).To(BeTrue())
				Expect(n).To(Equal(want), "x0=%g x_end=%g h=%g", x0, xEnd, h)
			}
		})

		It("places every record on the grid x0 + i*h", func() {
			trace, err := sim.New(integrators.NewEuler()).Solve(growth)
			Expect(err).NotTo(HaveOccurred())
			for i, r := range trace.Records() {
				Expect(r.Index).To(Equal(i))
				Expect(r.X).To(BeNumerically("~", float64(i)*0.1, 1e-12))
			}
		})
	})

	Describe("validation", func() {
		It("rejects a zero step", func() {
			growth.H = 0
			trace, err := sim.New(integrators.NewEuler()).Solve(growth)
			Expect(trace).To(BeNil())
			Expect(errors.Is(err, dynamo.ErrInvalidRequest)).To(BeTrue())

			var ire *dynamo.InvalidRequestError
			Expect(errors.As(err, &ire)).To(BeTrue())
			Expect(ire.Field).To(Equal("h"))
		})

		DescribeTable("rejects non-finite inputs",
			func(mutate func(*dynamo.Request), field string) {
				mutate(&growth)
				_, err := sim.New(integrators.NewRK4()).Solve(growth)
				var ire *dynamo.InvalidRequestError
				Expect(errors.As(err, &ire)).To(BeTrue())
				Expect(ire.Field).To(Equal(field))
			},
			Entry("x0", func(r *dynamo.Request) { r.X0 = math.NaN() }, "x0"),
			Entry("y0", func(r *dynamo.Request) { r.Y0 = math.Inf(1) }, "y0"),
			Entry("h", func(r *dynamo.Request) { r.H = math.NaN() }, "h"),
			Entry("x_end", func(r *dynamo.Request) { r.XEnd = math.Inf(-1) }, "x_end"),
		)

		It("rejects a slope of the wrong arity", func() {
			growth.Slope = exact("x")
			_, err := sim.New(integrators.NewEuler()).Solve(growth)
			Expect(err).To(MatchError(dynamo.ErrInvalidRequest))
		})

		It("rejects runs longer than the step limit", func() {
			growth.MaxSteps = 5
			_, err := sim.New(integrators.NewEuler()).Solve(growth)
			Expect(err).To(MatchError(dynamo.ErrInvalidRequest))
		})
	})

	Describe("accuracy", func() {
		It("matches the closed form of Euler on y' = y", func() {
			trace, err := sim.New(integrators.NewEuler()).Solve(growth)
			Expect(err).NotTo(HaveOccurred())
			last, _ := trace.Last()
			Expect(last.Y).To(BeNumerically("~", math.Pow(1.1, 10), 1e-9))
		})

		It("brings RK4 within 1e-5 of e and ahead of Euler", func() {
			rk, err := sim.New(integrators.NewRK4()).Solve(growth)
			Expect(err).NotTo(HaveOccurred())
			eu, err := sim.New(integrators.NewEuler()).Solve(growth)
			Expect(err).NotTo(HaveOccurred())

			rkLast, _ := rk.Last()
			euLast, _ := eu.Last()
			Expect(rkLast.Y).To(BeNumerically("~", math.E, 1e-5))
			Expect(rkLast.AbsError.Or(math.Inf(1))).To(BeNumerically("<", euLast.AbsError.Or(0)))
		})
	})

	Describe("step failure", func() {
		It("keeps the initial record when the first slope fails", func() {
			req := dynamo.Request{X0: 0, Y0: 1, H: 0.1, XEnd: 1, Slope: slope("1/x")}
			trace, err := sim.New(integrators.NewRK4()).Solve(req)

			var se *dynamo.StepEvaluationError
			Expect(errors.As(err, &se)).To(BeTrue())
			Expect(se.Step).To(Equal(0))
			Expect(se.Stage).To(Equal("k1"))
			Expect(errors.Is(err, dynamo.ErrStepEvaluation)).To(BeTrue())
			Expect(errors.Is(err, expr.ErrDivisionByZero)).To(BeTrue())

			Expect(trace).NotTo(BeNil())
			Expect(trace.Len()).To(Equal(1))
			Expect(trace.Phase).To(Equal(dynamo.Failed))
			Expect(trace.Err).To(Equal(error(se)))
			first := trace.At(0)
			Expect(first.X).To(Equal(0.0))
			Expect(first.Y).To(Equal(1.0))
			for _, s := range first.Stages {
				Expect(s.Valid()).To(BeFalse())
			}
		})

		It("keeps the completed prefix on a mid-run failure", func() {
			req := dynamo.Request{X0: -1, Y0: 1, H: 0.25, XEnd: 1, Slope: slope("1/x")}
			trace, err := sim.New(integrators.NewEuler()).Solve(req)
			Expect(err).To(HaveOccurred())

			var se *dynamo.StepEvaluationError
			Expect(errors.As(err, &se)).To(BeTrue())
			Expect(se.Step).To(Equal(4))
			Expect(se.X).To(Equal(0.0))
			Expect(trace.Len()).To(Equal(5))
			Expect(trace.Complete()).To(BeFalse())
		})
	})

	Describe("lifecycle", func() {
		It("moves from ready to done and refuses a second solve", func() {
			run := sim.New(integrators.NewMidpoint()).NewRun(growth)
			Expect(run.Phase()).To(Equal(dynamo.Ready))

			trace, err := run.Solve()
			Expect(err).NotTo(HaveOccurred())
			Expect(run.Phase()).To(Equal(dynamo.Done))
			Expect(trace.Phase).To(Equal(dynamo.Done))

			_, err = run.Solve()
			Expect(err).To(MatchError(dynamo.ErrAlreadySolved))
		})

		It("fails an invalid run", func() {
			growth.H = 0
			run := sim.New(integrators.NewHeun()).NewRun(growth)
			_, err := run.Solve()
			Expect(err).To(HaveOccurred())
			Expect(run.Phase()).To(Equal(dynamo.Failed))
		})
	})

	Describe("records", func() {
		It("stores every stage slope except on the last record", func() {
			trace, err := sim.New(integrators.NewRK4()).Solve(growth)
			Expect(err).NotTo(HaveOccurred())
			Expect(trace.Stages).To(Equal([]string{"k1", "k2", "k3", "k4"}))

			recs := trace.Records()
			for _, r := range recs[:len(recs)-1] {
				Expect(r.Stages).To(HaveLen(4))
				for _, s := range r.Stages {
					Expect(s.Valid()).To(BeTrue())
				}
				Expect(r.Stage(0).Or(0)).To(Equal(r.Y))
			}
			last := recs[len(recs)-1]
			Expect(last.Stages).To(HaveLen(4))
			for _, s := range last.Stages {
				Expect(s.Valid()).To(BeFalse())
			}
		})

		It("notifies observers once per record in order", func() {
			s := sim.New(integrators.NewEuler())
			var seen []int
			s.AddObserver(sim.ObserverFunc(func(r dynamo.StepRecord) { seen = append(seen, r.Index) }))

			trace, err := s.Solve(growth)
			Expect(err).NotTo(HaveOccurred())
			Expect(seen).To(HaveLen(trace.Len()))
			for i, idx := range seen {
				Expect(idx).To(Equal(i))
			}
		})

		It("leaves exact fields absent without an exact solution", func() {
			growth.Exact = nil
			trace, err := sim.New(integrators.NewRK4()).Solve(growth)
			Expect(err).NotTo(HaveOccurred())
			Expect(trace.HasExact()).To(BeFalse())
			for _, r := range trace.Records() {
				Expect(r.Exact.Valid()).To(BeFalse())
				Expect(r.RelError.Valid()).To(BeFalse())
			}
		})
	})
})
