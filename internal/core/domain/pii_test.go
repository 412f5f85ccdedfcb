package domain

import "testing"

func TestPIIEntity_Validate(t *testing.T) {
	tests := []struct {
		name    string
		entity  PIIEntity
		textLen int
		wantErr bool
	}{
		{
			name:    "valid span",
			entity:  PIIEntity{Type: PIISSN, Text: "123-45-6789", Start: 5, End: 16, Confidence: 0.95},
			textLen: 20,
		},
		{
			name:    "negative start",
			entity:  PIIEntity{Start: -1, End: 4, Confidence: 0.5},
			textLen: 10,
			wantErr: true,
		},
		{
			name:    "empty span",
			entity:  PIIEntity{Start: 4, End: 4, Confidence: 0.5},
			textLen: 10,
			wantErr: true,
		},
		{
			name:    "end past text",
			entity:  PIIEntity{Start: 4, End: 11, Confidence: 0.5},
			textLen: 10,
			wantErr: true,
		},
		{
			name:    "confidence above one",
			entity:  PIIEntity{Start: 0, End: 4, Confidence: 1.2},
			textLen: 10,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.entity.Validate(tt.textLen)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPIIEntity_Overlaps(t *testing.T) {
	a := &PIIEntity{Start: 0, End: 5}
	b := &PIIEntity{Start: 4, End: 8}
	c := &PIIEntity{Start: 5, End: 8}

	if !a.Overlaps(b) {
		t.Error("expected [0,5) to overlap [4,8)")
	}
	if a.Overlaps(c) {
		t.Error("half-open spans [0,5) and [5,8) must not overlap")
	}
}

func TestValidateNonOverlap(t *testing.T) {
	good := []PIIEntity{
		{Start: 0, End: 5},
		{Start: 5, End: 9},
		{Start: 12, End: 20},
	}
	if err := ValidateNonOverlap(good); err != nil {
		t.Errorf("unexpected error for non-overlapping entities: %v", err)
	}

	overlapping := []PIIEntity{
		{Start: 0, End: 6},
		{Start: 5, End: 9},
	}
	if err := ValidateNonOverlap(overlapping); err == nil {
		t.Error("expected error for overlapping entities")
	}

	unsorted := []PIIEntity{
		{Start: 10, End: 12},
		{Start: 0, End: 5},
	}
	if err := ValidateNonOverlap(unsorted); err == nil {
		t.Error("expected error for unsorted entities")
	}
}
