package config

// Defaults returns the built-in configuration used when no JSON config
// files are present. Values mirror config/*.json in the repository root.
func Defaults() *Config {
	return &Config{
		Models: ModelsConfig{
			Roles: map[string]RoleConfig{
				"light": {Provider: "openai", Model: "gpt-4o-mini", Temperature: 0.1, MaxTokens: 2000},
				"deep":  {Provider: "anthropic", Model: "claude-sonnet-4-5-20250929", Temperature: 0.1, MaxTokens: 4000},
				"async": {Provider: "google", Model: "gemini-2.0-flash-lite", Temperature: 0.1, MaxTokens: 2000},
			},
			Providers: map[string]ProviderConfig{
				"openai":    {EnvKey: "OPENAI_API_KEY", BaseURL: "https://api.openai.com/v1"},
				"anthropic": {EnvKey: "ANTHROPIC_API_KEY", BaseURL: "https://api.anthropic.com/v1"},
				"google":    {EnvKey: "GEMINI_API_KEY"},
			},
			Embedding: EmbeddingConfig{Provider: "openai", Model: "text-embedding-3-large", Dimensions: 1536},
		},
		Search: SearchConfig{
			FinalTopK:    5,
			VectorWeight: 0.6,
			FTSWeight:    0.4,
			RRFK:         60,
			ChunkSize:    1000,
			ChunkOverlap: 200,
			CaseLimit:    50,
		},
		Sources: SourcesConfig{
			SlovLexBaseURL: "https://www.slov-lex.sk",
			PMUBaseURL:     "https://www.antimon.gov.sk",
			NSSUDBaseURL:   "https://www.nssud.sk",
			EurLexBaseURL:  "https://eur-lex.europa.eu",
			ECCasesBaseURL: "https://competition-cases.ec.europa.eu",
			SparqlEndpoint: "https://publications.europa.eu/webapi/rdf/sparql",
		},
		Prompts: defaultPrompts(),
	}
}

func defaultPrompts() PromptsConfig {
	return PromptsConfig{
		RouterPrompt: `Classify this legal query for a Slovak/EU competition law database.

Previous context:
{context}

Query: {query}

Return JSON with exactly these fields:
{
  "intent": "question|search|followup|greeting|offtopic",
  "complexity": "simple|complex",
  "needs_eu": true/false,
  "needs_sk": true/false,
  "rewritten_query": "query optimized for full-text and semantic search"
}

Rules:
- "complex" = multi-part questions, comparisons between SK and EU law, case analysis
- needs_eu = query concerns EU competition law (Art. 101/102 TFEU, merger regulation, Commission decisions)
- needs_sk = query concerns Slovak law (zakon 187/2021, PMU decisions)
- When unsure, set both jurisdictions to true
- rewritten_query: expand abbreviations, add legal terminology, keep the original language`,
		VerifyPrompt: `Check this legal response against the source documents.

SOURCES:
{sources}

RESPONSE TO VERIFY:
{response}

Check:
1. Every factual legal claim is supported by the sources
2. Every citation is labelled [SK] or [EU] and matches a real source
3. No invented case numbers, article numbers, or dates

Return JSON:
{
  "verified": true/false,
  "issues": ["list of specific problems found"],
  "corrected_response": "full corrected text, only when verified is false and a correction is possible"
}`,
		SystemPrompts: SystemPrompts{
			Base: "You are a legal assistant specialized in Slovak and EU competition law. " +
				"Answer using only the provided source documents. " +
				"Label every source reference with [SK] for Slovak law or [EU] for EU law. " +
				"If the sources do not cover the question, say so explicitly. " +
				"Cite specific provisions (articles, sections) where possible.",
			LanguageSuffix: map[string]string{
				"sk": " Odpovedaj po slovensky.",
				"hu": " Valaszolj magyarul.",
				"en": " Answer in English.",
			},
		},
		GreetingResponse: map[string]string{
			"sk": "Dobrý deň! Som asistent pre súťažné právo SR a EÚ. Ako vám môžem pomôcť?",
			"hu": "Jó napot! A szlovák és EU versenyjog asszisztense vagyok. Miben segíthetek?",
			"en": "Hello! I am an assistant for Slovak and EU competition law. How can I help you?",
		},
		OfftopicResponse: map[string]string{
			"sk": "Špecializujem sa výlučne na súťažné právo SR a EÚ. Položte mi prosím otázku z tejto oblasti.",
			"hu": "Kizárólag a szlovák és EU versenyjogra specializálódtam. Kérem, tegyen fel kérdést ebből a területből.",
			"en": "I specialize in Slovak and EU competition law only. Please ask a question from this area.",
		},
		Conversation: ConversationConfig{MaxHistory: 6},
		JudgePrompts: JudgePrompts{
			DefineTopic: `Analyze this case description and define the legal topic.

CASE DESCRIPTION:
{case_description}

Return JSON with exactly these fields:
{
  "legal_domain": "primary area of law, e.g. competition law - cartels",
  "legal_issues": ["specific legal questions raised by the facts"],
  "jurisdictions": ["SK" and/or "EU"],
  "search_keywords": ["6-8 keywords for case law databases, in the language of the description"],
  "topic_summary": "2-3 sentence summary of the legal topic"
}`,
			AnalyzeCaseLaw: `Analyse the retrieved case law for this topic.

TOPIC:
{topic_summary}

LEGAL ISSUES:
{legal_issues}

RETRIEVED CASE LAW:
{case_law_results}

Provide a structured analysis covering:
1. Key legal principles established by the retrieved decisions
2. Legal tests applied by the courts
3. Hierarchy of norms (EU law primacy, conforming interpretation)
4. Gaps where no directly applicable precedent exists
Label every citation with [SK] or [EU].`,
			ApplyToCase: `Apply the case law analysis to the specific facts of this case.

CASE DESCRIPTION:
{case_description}

TOPIC ANALYSIS:
{topic_analysis}

CASE LAW ANALYSIS:
{case_law_analysis}

Produce a structured legal opinion:
1. Facts relevant to each legal issue
2. Applicable law and precedent, distinguishing binding precedent from persuasive authority
3. Application of the legal tests to the facts
4. Points where Slovak law must be interpreted in conformity with EU law
5. Conclusion with the most defensible legal position
Label every citation with [SK] or [EU].`,
			LanguageSuffix: map[string]string{
				"sk": "\n\nNapíš celú analýzu po slovensky.",
				"hu": "\n\nAz egész elemzést magyarul írd.",
				"en": "\n\nWrite the entire analysis in English.",
			},
		},
	}
}
