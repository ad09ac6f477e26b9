package region

import "testing"

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		code string
		want string
	}{
		{name: "india", code: "in1", want: "https://in1.api.clevertap.com"},
		{name: "united states", code: "us1", want: "https://us1.api.clevertap.com"},
		{name: "singapore", code: "sg1", want: "https://sg1.api.clevertap.com"},
		{name: "saudi arabia", code: "sk1", want: "https://sk1.api.clevertap.com"},
		{name: "europe", code: "eu1", want: "https://eu1.api.clevertap.com"},
		{name: "empty", code: "", want: "https://api.clevertap.com"},
		{name: "unknown", code: "mars1", want: "https://api.clevertap.com"},
		{name: "injection attempt", code: "evil.example.com/x", want: "https://api.clevertap.com"},
		{name: "upper case", code: "EU1", want: "https://eu1.api.clevertap.com"},
		{name: "padded", code: " in1 ", want: "https://in1.api.clevertap.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(tt.code); got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.code, got, tt.want)
			}
		})
	}
}

func TestEndpoint(t *testing.T) {
	if got, want := Endpoint("in1"), "https://in1.api.clevertap.com/1/profiles.json"; got != want {
		t.Errorf("Endpoint(in1) = %q, want %q", got, want)
	}
	if got, want := Endpoint(""), "https://api.clevertap.com/1/profiles.json"; got != want {
		t.Errorf("Endpoint(\"\") = %q, want %q", got, want)
	}
}

func TestKnown(t *testing.T) {
	for _, c := range Codes() {
		if !Known(c) {
			t.Errorf("Known(%q) = false, want true", c)
		}
	}
	if Known("") {
		t.Error("Known(\"\") = true, want false")
	}
	if Known("us2") {
		t.Error("Known(us2) = true, want false")
	}
}

func TestCodes_ReturnsCopy(t *testing.T) {
	c := Codes()
	c[0] = "zz9"
	if Codes()[0] != India {
		t.Error("Codes() exposed internal slice")
	}
}
