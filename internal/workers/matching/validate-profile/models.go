// internal/workers/matching/validate-profile/models.go
package validateprofile

import "govmatch/internal/common/validation"

// Input carries the raw profile as submitted by the process.
type Input struct {
	Profile map[string]interface{} `json:"profile"`
}

// Output reports the validation verdict back to the process instance.
type Output struct {
	ProfileValid     bool                         `json:"profileValid"`
	ValidationErrors []validation.ValidationError `json:"validationErrors,omitempty"`
}

// profileSchema is the contract every inbound requester profile must meet
// before it reaches the matching pipeline.
const profileSchema = `{
	"type": "object",
	"required": ["companyInfo", "companyScale", "supportPreferences"],
	"properties": {
		"companyInfo": {
			"type": "object",
			"required": ["name", "entityType", "purposeText"],
			"properties": {
				"name": {"type": "string", "minLength": 1},
				"entityType": {
					"type": "string",
					"enum": ["corporation", "sole_proprietor", "startup", "individual"]
				},
				"purposeText": {"type": "string", "minLength": 1},
				"foundedYear": {"type": "integer", "minimum": 1900}
			}
		},
		"companyScale": {
			"type": "object",
			"properties": {
				"employeeBand": {
					"type": "string",
					"enum": ["1-9", "10-49", "50-199", "200+"]
				},
				"revenueBand": {
					"type": "string",
					"enum": ["under-100m", "100m-1b", "1b-10b", "over-10b"]
				},
				"region": {"type": "string"}
			}
		},
		"supportPreferences": {
			"type": "object",
			"required": ["targetCategories"],
			"properties": {
				"targetCategories": {
					"type": "array",
					"items": {"type": "string"}
				},
				"urgencyTier": {
					"type": "string",
					"enum": ["immediate", "short", "medium", "long"]
				},
				"voucherInterest": {
					"type": "array",
					"items": {"type": "string"}
				}
			}
		}
	}
}`
