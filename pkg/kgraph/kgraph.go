package kgraph

import (
	"context"
	"errors"
	"strings"
)

// EntityType is the closed set of domain concept types the graph holds.
type EntityType string

const (
	EntityStandard     EntityType = "STANDARD"
	EntityMaterial     EntityType = "MATERIAL"
	EntityComponent    EntityType = "COMPONENT"
	EntityRequirement  EntityType = "REQUIREMENT"
	EntityTestMethod   EntityType = "TEST_METHOD"
	EntityCertificate  EntityType = "CERTIFICATE"
	EntityOrganization EntityType = "ORGANIZATION"
	EntityProcess      EntityType = "PROCESS"
)

// EntityTypes lists all valid entity types.
var EntityTypes = []EntityType{
	EntityStandard, EntityMaterial, EntityComponent, EntityRequirement,
	EntityTestMethod, EntityCertificate, EntityOrganization, EntityProcess,
}

// ValidEntityType reports whether t is a member of the closed entity enum.
func ValidEntityType(t EntityType) bool {
	for _, v := range EntityTypes {
		if v == t {
			return true
		}
	}
	return false
}

// RelationshipType is the closed set of edge types the graph holds.
type RelationshipType string

const (
	RelReferences  RelationshipType = "REFERENCES"
	RelRequires    RelationshipType = "REQUIRES"
	RelAppliesTo   RelationshipType = "APPLIES_TO"
	RelSupersedes  RelationshipType = "SUPERSEDES"
	RelDefinedIn   RelationshipType = "DEFINED_IN"
	RelTestedBy    RelationshipType = "TESTED_BY"
	RelCertifiedBy RelationshipType = "CERTIFIED_BY"
	RelPartOf      RelationshipType = "PART_OF"
)

// RelationshipTypes lists all valid relationship types.
var RelationshipTypes = []RelationshipType{
	RelReferences, RelRequires, RelAppliesTo, RelSupersedes,
	RelDefinedIn, RelTestedBy, RelCertifiedBy, RelPartOf,
}

// ValidRelationshipType reports whether t is a member of the closed
// relationship enum.
func ValidRelationshipType(t RelationshipType) bool {
	for _, v := range RelationshipTypes {
		if v == t {
			return true
		}
	}
	return false
}

// Entity is a canonical domain concept. Identity is derived from type and
// normalized name, so repeated extraction over overlapping windows merges
// instead of duplicating.
type Entity struct {
	ID          string
	Type        EntityType
	Name        string
	Description string
}

// Relationship is a typed edge between two entities, carrying the corpus
// chunk ids it was extracted from as provenance.
type Relationship struct {
	ID       string
	Type     RelationshipType
	SourceID string
	TargetID string
	ChunkIDs []string
}

// ErrUnavailable signals that the graph store could not be reached, as
// opposed to a reachable store returning no results. Callers degrade to
// vector-only retrieval on this error instead of failing the review.
var ErrUnavailable = errors.New("graph store unavailable")

// NormalizeName lowercases a name and collapses runs of non-alphanumeric
// characters into single dashes.
func NormalizeName(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if isAlnum {
			b.WriteRune(r)
			lastDash = false
			continue
		}
		if !lastDash {
			b.WriteByte('-')
			lastDash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// CanonicalEntityID derives the stable id for an entity from its type and
// normalized name. Identical inputs always regenerate identical keys, which
// is what makes graph construction idempotent.
func CanonicalEntityID(t EntityType, name string) string {
	return string(t) + ":" + NormalizeName(name)
}

// CanonicalRelationshipID derives the stable id for a relationship from its
// canonical endpoint ids and type.
func CanonicalRelationshipID(sourceID string, t RelationshipType, targetID string) string {
	return sourceID + "|" + string(t) + "|" + targetID
}

// IngestCheckpoint carries the resumable progress counters of a graph
// construction run.
type IngestCheckpoint struct {
	WindowOffset   int
	Windows        int
	Entities       int
	Relationships  int
	SkippedBatches int
}

// Store is the knowledge graph store. Writes use canonical idempotent keys;
// reads tolerate partially written data (missing relationship records are
// skipped, not errors). All batch operations are pipelined by
// implementations.
type Store interface {
	// UpsertEntities writes entity records and their name index entries.
	UpsertEntities(ctx context.Context, entities []Entity) error

	// UpsertRelationships writes relationship records and registers them in
	// the adjacency sets of both endpoints.
	UpsertRelationships(ctx context.Context, relationships []Relationship) error

	// LinkChunks adds membership links from every chunk id to every entity id.
	LinkChunks(ctx context.Context, chunkIDs []string, entityIDs []string) error

	// EntitiesForChunks returns the union of entity ids linked to the given
	// chunk ids.
	EntitiesForChunks(ctx context.Context, chunkIDs []string) ([]string, error)

	// Traverse expands the graph from the seed entities for up to maxHops
	// hops, returning at most maxChunks provenance chunk ids in insertion
	// order.
	Traverse(ctx context.Context, entityIDs []string, maxHops, maxChunks int) ([]string, error)

	// LoadCheckpoint returns the last saved ingest checkpoint, or a zero
	// checkpoint when none exists.
	LoadCheckpoint(ctx context.Context) (IngestCheckpoint, error)

	// SaveCheckpoint persists the ingest checkpoint.
	SaveCheckpoint(ctx context.Context, cp IngestCheckpoint) error
}
