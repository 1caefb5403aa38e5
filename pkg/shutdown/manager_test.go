package shutdown

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestShutdownRunsTasksInReverseOrder(t *testing.T) {
	ctx, m := NewManager(context.Background())

	var order []string
	m.Register(func(context.Context) error { order = append(order, "mongo"); return nil })
	m.Register(func(context.Context) error { order = append(order, "redis"); return errors.New("boom") })
	m.Register(func(context.Context) error { order = append(order, "http"); return nil })

	m.Shutdown()

	if ctx.Err() == nil {
		t.Fatal("root context must be cancelled")
	}
	want := []string{"http", "redis", "mongo"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}

	m.Shutdown()
	if len(order) != 3 {
		t.Errorf("tasks ran twice: %v", order)
	}
}
