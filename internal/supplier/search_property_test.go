package supplier

import (
    "testing"
    "time"

    "github.com/leanovate/gopter"
    "github.com/leanovate/gopter/gen"
    "github.com/leanovate/gopter/prop"

    "github.com/iliyamo/flight-booking/internal/apperr"
    "github.com/iliyamo/flight-booking/internal/model"
)

// Validation is a pure function of the request and the clock; no property
// here ever touches the network.
func TestSearchValidationProperties(t *testing.T) {
    now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
    params := gopter.DefaultTestParameters()
    params.MinSuccessfulTests = 200
    properties := gopter.NewProperties(params)

    properties.Property("more infants than adults is always rejected", prop.ForAll(
        func(adults, extraInfants int) bool {
            req := validRequest()
            req.Adults = adults
            req.Infants = adults + extraInfants
            err := ValidateSearchRequest(req, now)
            var verr *apperr.ValidationError
            if !asErr(err, &verr) {
                return false
            }
            for _, msg := range verr.Errors {
                if msg == "number of infants cannot exceed number of adults" {
                    return true
                }
            }
            return false
        },
        gen.IntRange(1, 4),
        gen.IntRange(1, 4),
    ))

    properties.Property("more than nine passengers is always rejected", prop.ForAll(
        func(adults, children int) bool {
            req := validRequest()
            req.Adults = adults
            req.Children = children
            if adults+children <= 9 {
                return ValidateSearchRequest(req, now) == nil
            }
            var verr *apperr.ValidationError
            return asErr(ValidateSearchRequest(req, now), &verr)
        },
        gen.IntRange(1, 9),
        gen.IntRange(0, 9),
    ))

    properties.Property("a validation failure always reports every violation", prop.ForAll(
        func(dropOrigin, dropDest bool) bool {
            req := validRequest()
            missing := 0
            if dropOrigin {
                req.Origin = ""
                missing++
            }
            if dropDest {
                req.Destination = ""
                missing++
            }
            err := ValidateSearchRequest(req, now)
            if missing == 0 {
                return err == nil
            }
            var verr *apperr.ValidationError
            return asErr(err, &verr) && len(verr.Errors) == missing
        },
        gen.Bool(),
        gen.Bool(),
    ))

    properties.TestingRun(t)
}

func TestFareTypeMapping(t *testing.T) {
    cases := map[string]string{
        model.TripOneWay:    "ON",
        model.TripRoundTrip: "RT",
        model.TripMultiCity: "IM",
        "":                  "ON",
    }
    for in, want := range cases {
        if got := fareType(in); got != want {
            t.Errorf("fareType(%q) = %q, want %q", in, got, want)
        }
    }
}
