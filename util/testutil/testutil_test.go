package testutil

import (
	"reflect"
	"testing"
)

type Person struct {
	Name string
	Age  int
}

func TestJS(t *testing.T) {
	tests := []struct {
		name string
		arg  interface{}
		want string
	}{
		{
			name: "simple struct",
			arg:  Person{"Homer", 39},
			want: `{"Name":"Homer","Age":39}`,
		},
		{
			name: "slice",
			arg:  []interface{}{"a", 1, true},
			want: `["a",1,true]`,
		},
		{
			name: "unmarshalable",
			arg:  make(chan int),
			want: "(chan int)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := JS(tt.arg)
			if tt.name == "unmarshalable" {
				if len(got) < len(tt.want) || got[:len(tt.want)] != tt.want {
					t.Errorf("JS() = %v, want prefix %v", got, tt.want)
				}
				return
			}
			if got != tt.want {
				t.Errorf("JS() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDwimjs(t *testing.T) {
	tests := []struct {
		name string
		arg  interface{}
		want interface{}
	}{
		{
			name: "JSON string",
			arg:  `{"name":"Marge","age":36}`,
			want: map[string]interface{}{"name": "Marge", "age": float64(36)},
		},
		{
			name: "JSON bytes",
			arg:  []byte(`["tacos"]`),
			want: []interface{}{"tacos"},
		},
		{
			name: "something else",
			arg:  12345,
			want: 12345,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Dwimjs(tt.arg); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Dwimjs() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDwimjsPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("didn't panic")
		}
	}()
	Dwimjs("hello world")
}

func TestDwimyaml(t *testing.T) {
	got := Dwimyaml("likes:\n  - tacos\n  - chips\n")
	m, is := got.(map[string]interface{})
	if !is {
		t.Fatalf("%T", got)
	}
	if JS(m) != `{"likes":["tacos","chips"]}` {
		t.Fatal(JS(m))
	}
}
