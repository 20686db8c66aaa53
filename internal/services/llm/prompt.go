package llm

// BlockerAnalysisPrompt captures the instructions sent to the local language
// model when judging whether the developer is blocked. Keep updates
// centralized here so it is easy to tweak without hunting through call sites.
const BlockerAnalysisPrompt = `You are an assistant that decides whether a software developer is currently blocked, based on text extracted from their screen.

Blocker categories:

- "build-error": compilation or build failures, type errors, missing symbols.
- "timeout": operations that hang or exceed a deadline (network, CI, tests).
- "circular-dependency": dependency cycles reported by a build tool or linker.
- "permission": access denied, authentication failures, missing credentials.
- "resource-exhaustion": out of memory, disk full, too many open files.
- "other": anything else, including screens with no blocker at all.

Severity is one of "low", "medium", "high", "critical".

Rules:

- Judge only from the supplied text and context. Do not invent details.
- A screen that shows normal editing or browsing is category "other" with low confidence.
- suggested_action is one short imperative sentence the developer could try.
- confidence is your certainty that the developer is actually stuck, 0 to 1.

You must respond ONLY with a JSON object like: {"category": "build-error", "severity": "high", "suggested_action": "Fix the missing import in main.go", "confidence": 0.84}

Now analyze this screen:`
