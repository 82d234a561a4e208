package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"

	"legislative-ai-assist/config"
	"legislative-ai-assist/llm"
	"legislative-ai-assist/models"
	"legislative-ai-assist/scraper"
)

// Runs of four or more letters, including the Slovak accented set, so
// fallback keyword extraction works on diacritic-heavy text.
var keywordRe = regexp.MustCompile(`[a-zA-ZáäčďéíľĺňóôŕšťúýžÁÄČĎÉÍĽĹŇÓÔŔŠŤÚÝŽ]{4,}`)

var judgeLangContext = map[string]string{
	"sk": "Analyze primarily in Slovak law context. Slovak courts apply both [SK] national law and directly applicable [EU] EU law.",
	"hu": "Analyze in Slovak/Hungarian law context. Both [SK] Slovak law and [EU] EU law may apply.",
	"en": "Analyze in Slovak and EU law context. Identify whether [SK] Slovak, [EU] EU, or both jurisdictions apply.",
}

var noCaseLawNotices = map[string]string{
	"sk": "Z externých databáz (Slov-lex, Európska komisia, Súdny dvor EÚ) " +
		"neboli pre danú tému nájdené žiadne konkrétne súdne rozhodnutia. " +
		"Analýza bude vychádzať zo všeobecných právnych zásad a platnej legislatívy " +
		"aplikovateľnej na danú právnu oblasť.",
	"hu": "A külső adatbázisokból (Slov-lex, Európai Bizottság, EU Bírósága) " +
		"nem találtunk konkrét ítéleteket erre a témára. " +
		"Az elemzés az alkalmazandó általános jogelveken és hatályos jogszabályokon alapul.",
	"en": "No specific case law was retrieved from the external databases " +
		"(Slov-lex, European Commission, Court of Justice of the EU) for this topic. " +
		"The analysis will be based on general legal principles and applicable legislation " +
		"for this area of law.",
}

var judgeSourceHeaders = map[string]string{
	scraper.SourceSlovLex: "=== Slov-lex [SK] – Slovak Judicial Decisions ===",
	scraper.SourceEC:      "=== European Commission [EU] – Competition Decisions ===",
	scraper.SourceCJEU:    "=== CJEU / EUR-Lex [EU] – Court of Justice of the EU ===",
}

// Fixed source order so prompt context is deterministic.
var judgeSourceOrder = []string{scraper.SourceSlovLex, scraper.SourceEC, scraper.SourceCJEU}

// Judge runs the four-step case analysis workflow: define the legal
// topic, search external case law in parallel, analyse the retrieved
// decisions, and apply the analysis to the case facts.
type Judge struct {
	llm      ModelCaller
	external SourceSearcher
	audit    Auditor
	cfg      *config.Config
}

// NewJudge creates the judge pipeline.
func NewJudge(caller ModelCaller, external SourceSearcher, audit Auditor, cfg *config.Config) *Judge {
	return &Judge{llm: caller, external: external, audit: audit, cfg: cfg}
}

// Analyze runs all four steps and returns the combined result. Every
// step degrades rather than aborts: a failed topic call falls back to
// keyword extraction, an empty search yields a fixed notice.
func (j *Judge) Analyze(ctx context.Context, caseDescription, language string) (*models.JudgeResult, error) {
	log.Printf("Judge: starting analysis, lang=%s", language)

	topic := j.defineTopic(ctx, caseDescription, language)
	log.Printf("Judge: step 1 complete, domain=%q, jurisdictions=%v", topic.LegalDomain, topic.Jurisdictions)

	searchQuery := buildJudgeSearchQuery(topic)
	caseLawResults := j.searchCaseLaw(ctx, searchQuery, topic)
	total := 0
	for _, res := range caseLawResults {
		total += len(res.Cases)
	}
	log.Printf("Judge: step 2 complete, %d results retrieved", total)

	caseLawAnalysis, err := j.analyzeCaseLaw(ctx, topic, caseLawResults, language)
	if err != nil {
		return nil, fmt.Errorf("case law analysis failed: %w", err)
	}
	log.Printf("Judge: step 3 complete")

	application, err := j.applyToCase(ctx, caseDescription, topic, caseLawAnalysis, language)
	if err != nil {
		return nil, fmt.Errorf("application to case failed: %w", err)
	}
	log.Printf("Judge: step 4 complete")

	return &models.JudgeResult{
		Topic:           topic,
		CaseLawAnalysis: caseLawAnalysis,
		Application:     application,
		Sources:         flattenJudgeSources(caseLawResults),
		StepsCompleted:  4,
		Language:        language,
	}, nil
}

// defineTopic extracts the legal domain, issues, jurisdictions, and
// search keywords with the deep model. Parse failures fall back to a
// keyword-extracted topic; all fields get defaults either way.
func (j *Judge) defineTopic(ctx context.Context, caseDescription, language string) models.TopicDefinition {
	prompt := config.Fill(j.cfg.Prompts.JudgePrompts.DefineTopic, map[string]string{
		"case_description": caseDescription,
	})

	langContext, ok := judgeLangContext[language]
	if !ok {
		langContext = "Analyze in Slovak and EU law context."
	}
	system := "[LEGAL ANALYSIS REQUEST - Educational and Professional Purpose]\n" +
		"You are an expert Slovak and EU legal analyst assisting judges and " +
		"legal professionals with case preparation and legal research.\n" +
		langContext + "\n" +
		"Return only valid JSON. No markdown, no explanation outside JSON."

	var topic models.TopicDefinition
	parsed := false

	result, err := j.llm.Call(ctx, "deep", system,
		[]llm.Message{{Role: "user", Content: prompt}},
		llm.WithJSONOutput(), llm.WithMaxTokens(800),
	)
	if err != nil {
		log.Printf("Warning: judge topic call failed, using fallback: %v", err)
	} else {
		j.audit.Log(ctx, models.AuditRecord{
			Operation:    "judge_topic",
			Provider:     result.Provider,
			Model:        result.Model,
			InputTokens:  result.InputTokens,
			OutputTokens: result.OutputTokens,
			LatencyMS:    result.LatencyMS,
		})
		if jsonErr := llm.ExtractJSON(result.Content, &topic); jsonErr != nil {
			log.Printf("Warning: judge topic JSON parse failed, using fallback")
		} else {
			parsed = true
		}
	}

	if !parsed {
		topic = models.TopicDefinition{
			LegalIssues:    []string{truncateRunes(caseDescription, 300)},
			SearchKeywords: ExtractFallbackKeywords(caseDescription),
			TopicSummary:   truncateRunes(caseDescription, 400),
		}
	}

	if topic.LegalDomain == "" {
		topic.LegalDomain = "general law"
	}
	if topic.LegalIssues == nil {
		topic.LegalIssues = []string{}
	}
	if len(topic.Jurisdictions) == 0 {
		topic.Jurisdictions = []string{"SK", "EU"}
	}
	if topic.SearchKeywords == nil {
		topic.SearchKeywords = []string{}
	}
	return topic
}

func (j *Judge) searchCaseLaw(ctx context.Context, query string, topic models.TopicDefinition) map[string]scraper.Result {
	includeSK := false
	includeEU := false
	for _, jur := range topic.Jurisdictions {
		switch jur {
		case "SK":
			includeSK = true
		case "EU":
			includeEU = true
		}
	}
	return j.external.SearchAllSources(ctx, query, 5, includeSK, includeEU, includeEU)
}

func (j *Judge) analyzeCaseLaw(ctx context.Context, topic models.TopicDefinition, caseLawResults map[string]scraper.Result, language string) (string, error) {
	formatted := FormatCaseLawResults(caseLawResults)
	if formatted == "" {
		log.Printf("Judge: no external case law found, returning notice")
		notice, ok := noCaseLawNotices[language]
		if !ok {
			notice = noCaseLawNotices["en"]
		}
		return notice, nil
	}

	prompt := config.Fill(j.cfg.Prompts.JudgePrompts.AnalyzeCaseLaw, map[string]string{
		"topic_summary":    topic.TopicSummary,
		"legal_issues":     strings.Join(topic.LegalIssues, ", "),
		"case_law_results": formatted,
	})
	prompt += j.cfg.Prompts.JudgePrompts.LanguageSuffix[language]

	result, err := j.llm.Call(ctx, "deep",
		"[LEGAL ANALYSIS REQUEST - Educational and Professional Purpose]\n"+
			"You are a senior legal analyst specialising in Slovak and EU law. "+
			"Provide objective, accurate analysis of the retrieved case law for "+
			"legal professionals engaged in case preparation. "+
			"Label every source reference with [SK] or [EU].",
		[]llm.Message{{Role: "user", Content: prompt}},
		llm.WithMaxTokens(2500),
	)
	if err != nil {
		return "", err
	}

	j.audit.Log(ctx, models.AuditRecord{
		Operation:    "judge_analysis",
		Provider:     result.Provider,
		Model:        result.Model,
		InputTokens:  result.InputTokens,
		OutputTokens: result.OutputTokens,
		LatencyMS:    result.LatencyMS,
	})
	return result.Content, nil
}

func (j *Judge) applyToCase(ctx context.Context, caseDescription string, topic models.TopicDefinition, caseLawAnalysis, language string) (string, error) {
	topicJSON, err := json.MarshalIndent(topic, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal topic: %w", err)
	}

	prompt := config.Fill(j.cfg.Prompts.JudgePrompts.ApplyToCase, map[string]string{
		"case_description":  caseDescription,
		"topic_analysis":    string(topicJSON),
		"case_law_analysis": caseLawAnalysis,
	})
	prompt += j.cfg.Prompts.JudgePrompts.LanguageSuffix[language]

	result, err := j.llm.Call(ctx, "deep",
		"[LEGAL ANALYSIS REQUEST - Educational and Professional Purpose]\n"+
			"You are a senior judge/legal analyst preparing a thorough legal "+
			"opinion for professional legal proceedings. This analysis is for "+
			"legal research and educational purposes. "+
			"Structure your analysis clearly with headings. "+
			"Label every source citation with [SK] or [EU]. "+
			"Distinguish between binding precedent and persuasive authority. "+
			"Note where Slovak law must be interpreted in conformity with EU law.",
		[]llm.Message{{Role: "user", Content: prompt}},
		llm.WithMaxTokens(4000),
	)
	if err != nil {
		return "", err
	}

	j.audit.Log(ctx, models.AuditRecord{
		Operation:    "judge_application",
		Provider:     result.Provider,
		Model:        result.Model,
		InputTokens:  result.InputTokens,
		OutputTokens: result.OutputTokens,
		LatencyMS:    result.LatencyMS,
	})
	return result.Content, nil
}

// buildJudgeSearchQuery builds a focused query from the first six
// keywords, falling back to the first eight summary words.
func buildJudgeSearchQuery(topic models.TopicDefinition) string {
	keywords := topic.SearchKeywords
	if len(keywords) == 0 {
		keywords = strings.Fields(topic.TopicSummary)
		if len(keywords) > 8 {
			keywords = keywords[:8]
		}
	}
	if len(keywords) > 6 {
		keywords = keywords[:6]
	}
	return strings.Join(keywords, " ")
}

// ExtractFallbackKeywords pulls up to eight distinct words of four or
// more letters from the text, preserving first-seen order. Used when
// the topic model returns unparseable output.
func ExtractFallbackKeywords(text string) []string {
	seen := make(map[string]bool)
	var keywords []string
	for _, w := range keywordRe.FindAllString(text, -1) {
		lower := strings.ToLower(w)
		if seen[lower] {
			continue
		}
		seen[lower] = true
		keywords = append(keywords, w)
		if len(keywords) >= 8 {
			break
		}
	}
	return keywords
}

// FormatCaseLawResults renders the per-source search results as
// sectioned text for the analysis prompt. Returns "" when every source
// came back empty.
func FormatCaseLawResults(results map[string]scraper.Result) string {
	var parts []string
	for _, key := range judgeSourceOrder {
		res, ok := results[key]
		if !ok || len(res.Cases) == 0 {
			continue
		}

		header, ok := judgeSourceHeaders[key]
		if !ok {
			header = "=== " + key + " ==="
		}
		parts = append(parts, header)

		for _, c := range res.Cases {
			line := "• " + c.Title
			if c.CaseNumber != "" {
				line += "  [" + c.CaseNumber + "]"
			}
			if c.Date != "" {
				line += "  (" + c.Date + ")"
			}
			if c.URL != "" {
				line += "\n  URL: " + c.URL
			}
			if c.Summary != "" {
				line += "\n  Summary: " + truncateRunes(c.Summary, 400)
			}
			parts = append(parts, line)
		}
		parts = append(parts, "")
	}
	return strings.Join(parts, "\n")
}

func flattenJudgeSources(results map[string]scraper.Result) []models.ExternalCase {
	var sources []models.ExternalCase
	for _, key := range judgeSourceOrder {
		if res, ok := results[key]; ok {
			sources = append(sources, res.Cases...)
		}
	}
	return sources
}
