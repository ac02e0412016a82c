package sim

import "github.com/san-kum/odetrace/internal/dynamo"

// Observer is notified of each record once its stage slopes are final,
// before exact-solution comparison is applied.
type Observer interface {
	OnRecord(r dynamo.StepRecord)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(r dynamo.StepRecord)

func (f ObserverFunc) OnRecord(r dynamo.StepRecord) { f(r) }
