package rdf

// Namespaces.
const (
	NSChess  = "http://purl.org/NET/rdfchess/ontology/"
	NSRDF    = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	NSXSD    = "http://www.w3.org/2001/XMLSchema#"
	NSSchema = "http://schema.org/"
	NSLDP    = "http://www.w3.org/ns/ldp#"
)

// Datatypes.
const (
	XSDString     = NSXSD + "string"
	XSDBoolean    = NSXSD + "boolean"
	RDFLangString = NSRDF + "langString"
)

// Chess ontology and companion vocabulary terms.
var (
	Type = IRI(NSRDF + "type")

	ChessGame         = IRI(NSChess + "ChessGame")
	HalfMove          = IRI(NSChess + "HalfMove")
	HasHalfMove       = IRI(NSChess + "hasHalfMove")
	HasSANRecord      = IRI(NSChess + "hasSANRecord")
	NextHalfMove      = IRI(NSChess + "nextHalfMove")
	HasFirstHalfMove  = IRI(NSChess + "hasFirstHalfMove")
	HasLastHalfMove   = IRI(NSChess + "hasLastHalfMove")
	ProvidesAgentRole = IRI(NSChess + "providesAgentRole")
	WhitePlayerRole   = IRI(NSChess + "WhitePlayerRole")
	BlackPlayerRole   = IRI(NSChess + "BlackPlayerRole")
	PerformedBy       = IRI(NSChess + "performedBy")
	StartPosition     = IRI(NSChess + "startPosition")
	IsRealTime        = IRI(NSChess + "isRealTime")
	Starts            = IRI(NSChess + "starts")
	GivenUpBy         = IRI(NSChess + "givenUpBy")

	Name         = IRI(NSSchema + "name")
	GiveUpAction = IRI(NSSchema + "GiveUpAction")
	Agent        = IRI(NSSchema + "agent")
	Object       = IRI(NSSchema + "object")

	Inbox = IRI(NSLDP + "inbox")
)
