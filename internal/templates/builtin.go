package templates

import (
	"fmt"

	"socratic/internal/types"
)

// NewBuiltinLibrary returns a library seeded with the compiled-in banks:
// project-category openers, concept-derived general questions, and
// per-domain technical variants. Every built-in template carries the
// SourceBuiltin marker so pack reloads never touch them.
func NewBuiltinLibrary() *Library {
	l := NewLibrary()
	l.AddAll(builtinTemplates())
	return l
}

// seed is the compact form the builtin tables are written in.
type seed struct {
	domain string
	qtype  types.QuestionType
	tier   types.ComplexityTier
	texts  []string
}

func builtinTemplates() []*Template {
	var out []*Template
	for _, s := range builtinSeeds {
		for i, text := range s.texts {
			out = append(out, &Template{
				ID:         fmt.Sprintf("builtin:%s:%s:%s:%d", s.domain, s.qtype, s.tier, i+1),
				Domain:     s.domain,
				Type:       s.qtype,
				Complexity: s.tier,
				Text:       text,
				Source:     SourceBuiltin,
			})
		}
	}
	return out
}

var builtinSeeds = []seed{
	// ---- Project-category openers ------------------------------------------
	{"chatbot", types.QuestionExploratory, types.ComplexitySimple, []string{
		"What kind of conversations do you want your chatbot to have with users?",
		"Who is your target audience for this chatbot?",
		"What specific problems should your chatbot help users solve?",
		"What tone or personality should your chatbot have?",
	}},
	{"data_analysis", types.QuestionExploratory, types.ComplexitySimple, []string{
		"What type of data are you working with?",
		"What insights or patterns are you hoping to discover?",
		"What decisions will this analysis help you make?",
		"How will you be using the results of this analysis?",
	}},
	{"rag_workflow", types.QuestionExploratory, types.ComplexitySimple, []string{
		"What kind of documents or knowledge base will you be searching through?",
		"What types of questions do users need to ask about this information?",
		"How current does the information need to be?",
		"What level of detail should the answers provide?",
	}},
	{"content_generation", types.QuestionExploratory, types.ComplexitySimple, []string{
		"What type of content do you want to generate?",
		"Who is the intended audience for this content?",
		"What style or tone should the content have?",
		"What information or inputs will you provide to generate the content?",
	}},

	// ---- General banks -----------------------------------------------------
	{types.GeneralDomain, types.QuestionExploratory, types.ComplexitySimple, []string{
		"Can you tell me more about what you're trying to accomplish?",
		"What prompted you to start this project now?",
		"Walk me through how things work today, before this project.",
	}},
	{types.GeneralDomain, types.QuestionExploratory, types.ComplexityModerate, []string{
		"How does this fit into your business goals?",
		"What's the expected business impact or ROI?",
		"Who are the key stakeholders for this project?",
	}},
	{types.GeneralDomain, types.QuestionClarifying, types.ComplexitySimple, []string{
		"What does a successful user interaction look like?",
		"How tech-savvy are your typical users?",
		"What would make this really valuable for your users?",
	}},
	{types.GeneralDomain, types.QuestionClarifying, types.ComplexityModerate, []string{
		"What manual processes are you hoping to automate?",
		"How often does this process need to run?",
		"What triggers should start this automation?",
	}},
	{types.GeneralDomain, types.QuestionTechnical, types.ComplexityModerate, []string{
		"What existing systems does this need to integrate with?",
		"Are there any technical constraints I should know about?",
		"What's your current technical infrastructure like?",
		"How quickly do you need responses or results?",
		"What happens if there's a delay in processing?",
	}},
	{types.GeneralDomain, types.QuestionTechnical, types.ComplexityAdvanced, []string{
		"How many users do you expect?",
		"What's the expected volume of data or requests?",
		"How quickly do you anticipate growth?",
		"What kind of sensitive information will be handled?",
		"What security or compliance requirements do you have?",
		"Who should have access to this system?",
	}},
	{types.GeneralDomain, types.QuestionTechnical, types.ComplexityExpert, []string{
		"What are the hard consistency or latency guarantees this has to meet?",
		"Where do you expect this design to break first as it scales?",
	}},
	{types.GeneralDomain, types.QuestionValidation, types.ComplexityAdvanced, []string{
		"How would you verify that this behaves correctly before rolling it out?",
		"If this failed silently, how would you find out?",
	}},
	{types.GeneralDomain, types.QuestionValidation, types.ComplexityExpert, []string{
		"What would convince you this design holds up under real load?",
		"What's your rollback story if this misbehaves in production?",
	}},
	{types.GeneralDomain, types.QuestionFollowUp, types.ComplexityModerate, []string{
		"How does this relate to what you described earlier?",
		"Has anything you've said so far changed how you see this part?",
	}},

	// ---- Domain-specific variants ------------------------------------------
	{"healthcare", types.QuestionTechnical, types.ComplexityModerate, []string{
		"What patient information will this system handle, and who needs access to it?",
	}},
	{"healthcare", types.QuestionTechnical, types.ComplexityAdvanced, []string{
		"How will you meet HIPAA requirements around audit trails and data protection?",
	}},
	{"healthcare", types.QuestionClarifying, types.ComplexityModerate, []string{
		"Which clinical workflows does this need to fit into?",
	}},
	{"finance", types.QuestionTechnical, types.ComplexityModerate, []string{
		"What financial data flows through this system, and how is it protected today?",
	}},
	{"finance", types.QuestionTechnical, types.ComplexityAdvanced, []string{
		"How do you handle transaction audit logs and regulatory reporting?",
	}},
	{"finance", types.QuestionClarifying, types.ComplexityModerate, []string{
		"Which payment or banking systems does this need to connect with?",
	}},
	{"manufacturing", types.QuestionTechnical, types.ComplexityModerate, []string{
		"Which production, supply, or inventory systems would this need to talk to?",
	}},
	{"manufacturing", types.QuestionTechnical, types.ComplexityAdvanced, []string{
		"How do you track inventory and production data across facilities today?",
	}},
	{"manufacturing", types.QuestionClarifying, types.ComplexityModerate, []string{
		"Where in your production process does this fit?",
	}},
	{"retail", types.QuestionTechnical, types.ComplexityModerate, []string{
		"Where does your customer and sales data live today?",
	}},
	{"retail", types.QuestionTechnical, types.ComplexityAdvanced, []string{
		"How do your commerce, CRM, and inventory systems share data now?",
	}},
	{"retail", types.QuestionClarifying, types.ComplexityModerate, []string{
		"Which parts of the customer journey should this improve?",
	}},
	{"education", types.QuestionClarifying, types.ComplexitySimple, []string{
		"Who are the learners, and what do they struggle with most?",
	}},
	{"education", types.QuestionTechnical, types.ComplexityModerate, []string{
		"Which learning platforms or course tools does this need to work with?",
	}},
	{"education", types.QuestionClarifying, types.ComplexityModerate, []string{
		"How do students and instructors interact with your current setup?",
	}},
	{"technology", types.QuestionTechnical, types.ComplexityModerate, []string{
		"What does your current architecture look like at a high level?",
	}},
	{"technology", types.QuestionTechnical, types.ComplexityAdvanced, []string{
		"How are your services deployed and monitored today?",
	}},
	{"technology", types.QuestionTechnical, types.ComplexityExpert, []string{
		"What are the scalability and reliability targets this has to hit?",
	}},
}
