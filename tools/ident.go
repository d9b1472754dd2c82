package tools

// Ident is the strong type for fully qualified tool identifiers
// (e.g., "submit", "search_web"). Use this type when referencing tools in
// maps or dispatch tables to avoid accidental mixing with free-form strings.
type Ident string
