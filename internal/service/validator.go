// internal/service/validator.go
package service

import (
    "fmt"
    "time"

    "github.com/unclebandit/outreach-backend/internal/model"
)

// ValidationResult is the outcome of validating one step's configuration.
type ValidationResult struct {
    Valid         bool
    Error         string
    MissingFields []string
}

// requiredFields lists the config keys each channel step type must carry.
// delay, condition and lead_generation have structural rules handled below.
var requiredFields = map[string][]string{
    model.StepLinkedInConnect: {},
    model.StepLinkedInMessage: {"message"},
    model.StepEmail:           {"subject", "body"},
    model.StepWhatsApp:        {"message"},
    model.StepVoiceCall:       {"script"},
    model.StepStart:           {},
    model.StepEnd:             {},
}

// ValidateStep checks a step's configuration against its type's rules. It is
// a pure function: no I/O, no state.
func ValidateStep(stepType string, config map[string]any) ValidationResult {
    switch stepType {
    case model.StepDelay:
        if configNumber(config, "days") > 0 ||
            configNumber(config, "hours") > 0 ||
            configNumber(config, "minutes") > 0 {
            return ValidationResult{Valid: true}
        }
        return ValidationResult{
            Valid:         false,
            Error:         "delay step requires at least one of days, hours or minutes to be greater than zero",
            MissingFields: []string{"days", "hours", "minutes"},
        }

    case model.StepCondition:
        if configString(config, "condition") == "" {
            return ValidationResult{
                Valid:         false,
                Error:         "condition step requires a condition identifier",
                MissingFields: []string{"condition"},
            }
        }
        return ValidationResult{Valid: true}

    case model.StepLeadGeneration:
        hasFilter := len(configStringSlice(config, "titles")) > 0 ||
            len(configStringSlice(config, "locations")) > 0 ||
            len(configStringSlice(config, "industries")) > 0
        if hasFilter || configNumber(config, "limit") > 0 {
            return ValidationResult{Valid: true}
        }
        return ValidationResult{
            Valid:         false,
            Error:         "lead generation requires at least one filter (titles, locations, industries) or an explicit limit",
            MissingFields: []string{"titles", "locations", "industries", "limit"},
        }
    }

    required, known := requiredFields[stepType]
    if !known {
        // Unknown step types pass validation; the executor registry decides
        // what to do with them.
        return ValidationResult{Valid: true}
    }

    var missing []string
    for _, field := range required {
        if configString(config, field) == "" {
            missing = append(missing, field)
        }
    }
    if len(missing) > 0 {
        return ValidationResult{
            Valid:         false,
            Error:         fmt.Sprintf("step type %q is missing required fields", stepType),
            MissingFields: missing,
        }
    }
    return ValidationResult{Valid: true}
}

// delayDuration reads the configured delay of a delay step.
func delayDuration(config map[string]any) time.Duration {
    days := configNumber(config, "days")
    hours := configNumber(config, "hours")
    minutes := configNumber(config, "minutes")
    return time.Duration(days)*24*time.Hour +
        time.Duration(hours)*time.Hour +
        time.Duration(minutes)*time.Minute
}

// ====================== config helpers ======================
// Step configs come out of JSONB, so numbers are float64 and lists are
// []any.

func configNumber(config map[string]any, key string) float64 {
    switch v := config[key].(type) {
    case float64:
        return v
    case int:
        return float64(v)
    }
    return 0
}

func configString(config map[string]any, key string) string {
    if v, ok := config[key].(string); ok {
        return v
    }
    return ""
}

func configStringSlice(config map[string]any, key string) []string {
    switch v := config[key].(type) {
    case []string:
        return v
    case []any:
        out := make([]string, 0, len(v))
        for _, item := range v {
            if s, ok := item.(string); ok && s != "" {
                out = append(out, s)
            }
        }
        return out
    }
    return nil
}
