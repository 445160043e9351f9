package transport

import (
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/karishmathakrar/GreenGridPR/internal/replay"
)

// Transition is the wire form of replay.Transition.
type Transition struct {
	State     []float64
	Action    int64
	Reward    float64
	NextState []float64
	Done      bool
}

func (t *Transition) marshal(b []byte) []byte {
	b = appendPackedDoubles(b, 1, t.State)
	b = appendVarintField(b, 2, t.Action)
	b = appendDoubleField(b, 3, t.Reward)
	b = appendPackedDoubles(b, 4, t.NextState)
	return appendBoolField(b, 5, t.Done)
}

func (t *Transition) unmarshal(b []byte) error {
	*t = Transition{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeDoubles(typ, b, &t.State)
		case 2:
			return consumeVarint(typ, b, &t.Action)
		case 3:
			return consumeDouble(typ, b, &t.Reward)
		case 4:
			return consumeDoubles(typ, b, &t.NextState)
		case 5:
			return consumeBool(typ, b, &t.Done)
		}
		return 0, nil
	})
}

func toWireTransitions(ts []replay.Transition) []*Transition {
	out := make([]*Transition, len(ts))
	for i, t := range ts {
		out[i] = &Transition{
			State:     t.State,
			Action:    int64(t.Action),
			Reward:    t.Reward,
			NextState: t.NextState,
			Done:      t.Done,
		}
	}
	return out
}

func fromWireTransitions(ts []*Transition) []replay.Transition {
	out := make([]replay.Transition, len(ts))
	for i, t := range ts {
		out[i] = replay.Transition{
			State:     t.State,
			Action:    int(t.Action),
			Reward:    t.Reward,
			NextState: t.NextState,
			Done:      t.Done,
		}
	}
	return out
}

func appendTransitions(b []byte, num protowire.Number, ts []*Transition) []byte {
	for _, t := range ts {
		b = appendMessageField(b, num, t)
	}
	return b
}

func consumeTransition(typ protowire.Type, b []byte, dst *[]*Transition) (int, error) {
	t := &Transition{}
	n, err := consumeMessage(typ, b, t)
	if err != nil {
		return 0, err
	}
	*dst = append(*dst, t)
	return n, nil
}

// AddRequest appends transitions. Priorities are raw; when empty every
// transition gets replay.DefaultPriority.
type AddRequest struct {
	Transitions []*Transition
	Priorities  []float64
}

func (r *AddRequest) marshal(b []byte) []byte {
	b = appendTransitions(b, 1, r.Transitions)
	return appendPackedDoubles(b, 2, r.Priorities)
}

func (r *AddRequest) unmarshal(b []byte) error {
	*r = AddRequest{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeTransition(typ, b, &r.Transitions)
		case 2:
			return consumeDoubles(typ, b, &r.Priorities)
		}
		return 0, nil
	})
}

// AddResponse reports the buffer length after the add.
type AddResponse struct {
	Len int64
}

func (r *AddResponse) marshal(b []byte) []byte {
	return appendVarintField(b, 1, r.Len)
}

func (r *AddResponse) unmarshal(b []byte) error {
	*r = AddResponse{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == 1 {
			return consumeVarint(typ, b, &r.Len)
		}
		return 0, nil
	})
}

// SampleRequest asks for a prioritized batch.
type SampleRequest struct {
	BatchSize int64
	Beta      float64
}

func (r *SampleRequest) marshal(b []byte) []byte {
	b = appendVarintField(b, 1, r.BatchSize)
	return appendDoubleField(b, 2, r.Beta)
}

func (r *SampleRequest) unmarshal(b []byte) error {
	*r = SampleRequest{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeVarint(typ, b, &r.BatchSize)
		case 2:
			return consumeDouble(typ, b, &r.Beta)
		}
		return 0, nil
	})
}

// SampleResponse carries a batch in draw order.
type SampleResponse struct {
	Transitions []*Transition
	Indices     []int
	Weights     []float64
}

func (r *SampleResponse) marshal(b []byte) []byte {
	b = appendTransitions(b, 1, r.Transitions)
	b = appendPackedInts(b, 2, r.Indices)
	return appendPackedDoubles(b, 3, r.Weights)
}

func (r *SampleResponse) unmarshal(b []byte) error {
	*r = SampleResponse{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeTransition(typ, b, &r.Transitions)
		case 2:
			return consumeInts(typ, b, &r.Indices)
		case 3:
			return consumeDoubles(typ, b, &r.Weights)
		}
		return 0, nil
	})
}

// UpdatePrioritiesRequest writes raw priorities back to sampled positions.
type UpdatePrioritiesRequest struct {
	Indices    []int
	Priorities []float64
}

func (r *UpdatePrioritiesRequest) marshal(b []byte) []byte {
	b = appendPackedInts(b, 1, r.Indices)
	return appendPackedDoubles(b, 2, r.Priorities)
}

func (r *UpdatePrioritiesRequest) unmarshal(b []byte) error {
	*r = UpdatePrioritiesRequest{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeInts(typ, b, &r.Indices)
		case 2:
			return consumeDoubles(typ, b, &r.Priorities)
		}
		return 0, nil
	})
}

// UpdatePrioritiesResponse reports how many priorities were written.
type UpdatePrioritiesResponse struct {
	Updated int64
}

func (r *UpdatePrioritiesResponse) marshal(b []byte) []byte {
	return appendVarintField(b, 1, r.Updated)
}

func (r *UpdatePrioritiesResponse) unmarshal(b []byte) error {
	*r = UpdatePrioritiesResponse{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == 1 {
			return consumeVarint(typ, b, &r.Updated)
		}
		return 0, nil
	})
}

// StatsRequest has no fields.
type StatsRequest struct{}

func (*StatsRequest) marshal(b []byte) []byte { return b }

func (*StatsRequest) unmarshal(b []byte) error {
	return consumeFields(b, func(protowire.Number, protowire.Type, []byte) (int, error) { return 0, nil })
}

// StatsResponse mirrors replay.Stats.
type StatsResponse struct {
	Len           int64
	Capacity      int64
	Alpha         float64
	TotalPriority float64
	MinPriority   float64
	MaxPriority   float64
	Full          bool
}

func (r *StatsResponse) marshal(b []byte) []byte {
	b = appendVarintField(b, 1, r.Len)
	b = appendVarintField(b, 2, r.Capacity)
	b = appendDoubleField(b, 3, r.Alpha)
	b = appendDoubleField(b, 4, r.TotalPriority)
	b = appendDoubleField(b, 5, r.MinPriority)
	b = appendDoubleField(b, 6, r.MaxPriority)
	return appendBoolField(b, 7, r.Full)
}

func (r *StatsResponse) unmarshal(b []byte) error {
	*r = StatsResponse{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeVarint(typ, b, &r.Len)
		case 2:
			return consumeVarint(typ, b, &r.Capacity)
		case 3:
			return consumeDouble(typ, b, &r.Alpha)
		case 4:
			return consumeDouble(typ, b, &r.TotalPriority)
		case 5:
			return consumeDouble(typ, b, &r.MinPriority)
		case 6:
			return consumeDouble(typ, b, &r.MaxPriority)
		case 7:
			return consumeBool(typ, b, &r.Full)
		}
		return 0, nil
	})
}
