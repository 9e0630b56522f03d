package main

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/pierkiroule/Pixaloop/capture"
	"github.com/pierkiroule/Pixaloop/flow"
)

func TestParsePaths(t *testing.T) {
	tests := []struct {
		in      string
		want    [][]flow.Point
		wantErr bool
	}{
		{in: "", want: nil},
		{in: "0.2,0.2 0.8,0.8", want: [][]flow.Point{{flow.Pt(0.2, 0.2), flow.Pt(0.8, 0.8)}}},
		{
			in: "0,0 1,1; 0.5,0.1  0.5,0.9 0.4,0.9;",
			want: [][]flow.Point{
				{flow.Pt(0, 0), flow.Pt(1, 1)},
				{flow.Pt(0.5, 0.1), flow.Pt(0.5, 0.9), flow.Pt(0.4, 0.9)},
			},
		},
		{in: "0.5,0.5", wantErr: true},
		{in: "0.5;0.5 1,1", wantErr: true},
		{in: "a,1 1,1", wantErr: true},
		{in: "1,b 1,1", wantErr: true},
	}
	for _, tt := range tests {
		got, err := parsePaths(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parsePaths(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if d := cmp.Diff(tt.want, got); d != "" {
			t.Errorf("parsePaths(%q) (-want +got):\n%s", tt.in, d)
		}
	}
}

func TestSinkFactory(t *testing.T) {
	for _, f := range []string{"webm", "gif"} {
		if _, err := sinkFactory(f); err != nil {
			t.Errorf("sinkFactory(%q): %v", f, err)
		}
	}
	newSink, _ := sinkFactory("webm")
	if s, ok := newSink(capture.KindMaster).(*capture.FFmpegSink); !ok || !s.Block {
		t.Errorf("webm sink = %#v, want a blocking ffmpeg sink", newSink(capture.KindMaster))
	}
	if _, err := sinkFactory("avi"); err == nil {
		t.Error("sinkFactory accepted avi")
	}
}
