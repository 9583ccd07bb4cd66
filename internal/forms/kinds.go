package forms

import (
	"fmt"
	"strings"

	"github.com/yourorg/listings-api/internal/canon"
)

// Kind names one enquiry form. General is the bare /api/contact form.
type Kind string

const (
	General     Kind = ""
	Agent       Kind = "agent"
	Appraisal   Kind = "appraisal"
	Appointment Kind = "appointment"
	BuyerAgent  Kind = "buyer-agent"
	Careers     Kind = "careers"
	Complaints  Kind = "complaints"
	Landlord    Kind = "landlord"
	Tenant      Kind = "tenant"
)

func (k Kind) String() string {
	if k == General {
		return "general"
	}
	return string(k)
}

// defaultState is used wherever a form leaves the state blank.
const defaultState = "QLD"

// Descriptor is everything that differs between two kinds of form.
type Descriptor struct {
	Kind             Kind
	Label            func(Fields) string
	Required         []string
	Comments         func(Fields) string
	AdditionalFields func(Fields) []AdditionalField
	Address          func(Fields) *Address
	Success          func(Fields) string
}

// formAddress keeps street and suburb as typed but canonicalises state and postcode.
func formAddress(street, suburb, state, postcode string) *Address {
	_, _, st, pc, _ := canon.Canonicalize(street, suburb, state, postcode)
	return &Address{Street: street, Suburb: suburb, State: st, Postcode: pc}
}

func fixed(s string) func(Fields) string { return func(Fields) string { return s } }

// present emits a field only when the submitter filled it in.
func present(f Fields, names ...string) []AdditionalField {
	var out []AdditionalField
	for _, n := range names {
		if v := f.Get(n); v != "" {
			out = append(out, AdditionalField{Field: n, Value: v})
		}
	}
	return out
}

// always emits a field, falling back to def when it is blank.
func always(f Fields, name, def string) AdditionalField {
	return AdditionalField{Field: name, Value: f.Or(name, def)}
}

var descriptors = map[Kind]Descriptor{
	General: {
		Kind:     General,
		Label:    fixed("General Contact Inquiry"),
		Required: []string{"firstName", "lastName", "email", "subject", "message"},
		Comments: func(f Fields) string {
			return f.Get("subject") + "\n\n" + f.Get("message")
		},
		Success: fixed("Thank you for your message! We'll get back to you as soon as possible."),
	},
	Agent: {
		Kind: Agent,
		Label: func(f Fields) string {
			if f.Get("listingID") != "" {
				return "Property Enquiry"
			}
			return "Agent Contact Request"
		},
		Required: []string{"firstName", "lastName", "email", "message"},
		Comments: func(f Fields) string { return f.Get("message") },
		AdditionalFields: func(f Fields) []AdditionalField {
			return present(f, "agentID", "listingID", "propertyAddress")
		},
		Success: func(f Fields) string {
			if f.Get("listingID") != "" {
				return "Thank you for your enquiry! The agent will contact you within 24 hours regarding this property."
			}
			return "Thank you for your enquiry! Our team will contact you within 24 hours."
		},
	},
	Appraisal: {
		Kind:     Appraisal,
		Label:    fixed("Property Appraisal Request"),
		Required: []string{"firstName", "lastName", "email", "phone", "propertyAddress"},
		Comments: func(f Fields) string {
			return strings.TrimSpace(fmt.Sprintf("Property Appraisal Request for %s. Purpose: %s. %s",
				f.Get("propertyAddress"), f.Or("purpose", "Not specified"), f.Get("additionalInfo")))
		},
		AdditionalFields: func(f Fields) []AdditionalField {
			return present(f, "purpose", "propertyType", "bedrooms", "bathrooms")
		},
		Address: func(f Fields) *Address {
			return formAddress(f.Get("propertyAddress"), f.Get("suburb"), f.Or("state", defaultState), f.Get("postcode"))
		},
		Success: fixed("Thank you for your appraisal request! Our team will contact you within 24 hours to arrange a property inspection and provide your free valuation."),
	},
	Appointment: {
		Kind:     Appointment,
		Label:    fixed("Appointment Booking"),
		Required: []string{"firstName", "lastName", "email", "phone", "appointmentType", "preferredDate"},
		Comments: func(f Fields) string {
			return fmt.Sprintf("Appointment Booking Request\n\nType: %s\nPreferred Date: %s\nPreferred Time: %s\nLocation: %s\n\nAdditional Information:\n%s",
				f.Get("appointmentType"), f.Get("preferredDate"), f.Or("preferredTime", "Flexible"),
				f.Or("preferredLocation", "Office"), f.Or("additionalInfo", "None provided"))
		},
		AdditionalFields: func(f Fields) []AdditionalField {
			return []AdditionalField{
				always(f, "appointmentType", ""),
				always(f, "preferredDate", ""),
				always(f, "preferredTime", ""),
				always(f, "preferredLocation", "office"),
			}
		},
		Success: fixed("Thank you for your appointment request! Our team will contact you within 24 hours to confirm your preferred time and location. We look forward to meeting with you."),
	},
	BuyerAgent: {
		Kind:     BuyerAgent,
		Label:    fixed("Buyer Agent Request"),
		Required: []string{"firstName", "lastName", "email", "phone", "budgetRange", "propertyType"},
		Comments: func(f Fields) string {
			return fmt.Sprintf("Buyer's Agent Service Request\n\nBudget Range: %s\nProperty Type: %s\nPreferred Areas: %s\nBedrooms: %s\nBathrooms: %s\nTimeline: %s\n\nSpecific Requirements:\n%s\n\nAdditional Information:\n%s",
				f.Get("budgetRange"), f.Get("propertyType"), f.Or("preferredAreas", "Open to suggestions"),
				f.Or("bedrooms", "Flexible"), f.Or("bathrooms", "Flexible"), f.Or("timeline", "Not specified"),
				f.Or("specificRequirements", "None specified"), f.Or("additionalInfo", "None provided"))
		},
		AdditionalFields: func(f Fields) []AdditionalField {
			return []AdditionalField{
				always(f, "budgetRange", ""),
				always(f, "propertyType", ""),
				always(f, "preferredAreas", ""),
				always(f, "bedrooms", ""),
				always(f, "bathrooms", ""),
				always(f, "timeline", ""),
				always(f, "firstTimeBuyer", "false"),
			}
		},
		Success: fixed("Thank you for your buyer's agent request! Our dedicated buyer's agent will contact you within 24 hours to discuss your requirements and begin your personalized property search."),
	},
	Careers: {
		Kind:     Careers,
		Label:    fixed("Career Application"),
		Required: []string{"firstName", "lastName", "email", "phone", "position", "resume"},
		Comments: func(f Fields) string {
			return fmt.Sprintf("Career Application for: %s. %s\n\nExperience: %s\nAvailability: %s",
				f.Get("position"), f.Get("coverLetter"), f.Or("experience", "Not specified"), f.Or("availability", "Not specified"))
		},
		AdditionalFields: func(f Fields) []AdditionalField {
			out := []AdditionalField{
				always(f, "position", ""),
				always(f, "experience", ""),
				always(f, "availability", ""),
				always(f, "resume", "Resume attached"),
			}
			return append(out, present(f, "portfolio")...)
		},
		Success: fixed("Thank you for your application! Our HR team will review your submission and contact you within 1-2 business days if your qualifications match our current openings."),
	},
	Complaints: {
		Kind:     Complaints,
		Label:    fixed("Complaint Submission"),
		Required: []string{"firstName", "lastName", "email", "complainantType", "complaintDetails"},
		Comments: func(f Fields) string {
			return fmt.Sprintf("COMPLAINT SUBMISSION\n\nComplainant Type: %s\nProperty/Agent Involved: %s\n\nComplaint Details:\n%s\n\nDesired Resolution:\n%s",
				f.Get("complainantType"), f.Or("propertyAgent", "Not specified"), f.Get("complaintDetails"), f.Or("desiredResolution", "Not specified"))
		},
		AdditionalFields: func(f Fields) []AdditionalField {
			return []AdditionalField{
				always(f, "complainantType", ""),
				always(f, "propertyAgent", ""),
				always(f, "incidentDate", ""),
				always(f, "attemptedResolution", "No"),
				always(f, "urgency", "Normal"),
			}
		},
		Success: fixed("Thank you for submitting your complaint. We take all concerns seriously and will investigate this matter thoroughly. Our complaints officer will contact you within 2 business days with an acknowledgment and initial response."),
	},
	Landlord: {
		Kind:     Landlord,
		Label:    fixed("Property Management Inquiry"),
		Required: []string{"firstName", "lastName", "email", "phone", "propertyAddress"},
		Comments: func(f Fields) string {
			return strings.TrimSpace(fmt.Sprintf("Property Management Inquiry for %s. %s", f.Get("propertyAddress"), f.Get("additionalInfo")))
		},
		AdditionalFields: func(f Fields) []AdditionalField {
			return present(f, "propertyType", "bedrooms", "bathrooms", "expectedRent", "managementType", "availabilityDate")
		},
		Address: func(f Fields) *Address {
			return formAddress(f.Get("propertyAddress"), f.Get("suburb"), f.Or("state", defaultState), f.Get("postcode"))
		},
		Success: fixed("Thank you for your inquiry! Our property management team will contact you within 24 hours to discuss your requirements and arrange a free property appraisal."),
	},
	Tenant: {
		Kind:     Tenant,
		Label:    fixed("Rental Application"),
		Required: []string{"firstName", "lastName", "email", "phone"},
		Comments: func(f Fields) string {
			return strings.TrimSpace("Rental Application. " + f.Get("additionalInfo"))
		},
		AdditionalFields: func(f Fields) []AdditionalField {
			out := present(f, "dateOfBirth", "currentAddress", "currentRent", "moveOutDate", "reasonForMoving",
				"employer", "position", "annualIncome", "employmentType", "preferredArea", "maxWeeklyRent",
				"moveInDate", "householdSize")
			pets := AdditionalField{Field: "pets", Value: "No"}
			if f.Get("pets") != "" {
				pets.Value = f.Or("petsDetails", "Yes")
			}
			out = append(out, pets)
			return append(out, present(f, "previousLandlord", "previousLandlordPhone", "employerReference", "personalReference")...)
		},
		Address: func(f Fields) *Address {
			return formAddress(f.Get("currentAddress"), f.Get("preferredArea"), defaultState, "")
		},
		Success: fixed("Thank you for your rental application! Our leasing team will review your application and contact you within 24-48 hours. Please ensure you have your supporting documents ready."),
	},
}

// Lookup resolves a kind from its path slug; "" and "general" are the general form.
func Lookup(slug string) (Descriptor, bool) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "general" {
		slug = ""
	}
	d, ok := descriptors[Kind(slug)]
	return d, ok
}

// Kinds lists every registered form, general first.
func Kinds() []Kind {
	return []Kind{General, Agent, Appraisal, Appointment, BuyerAgent, Careers, Complaints, Landlord, Tenant}
}
