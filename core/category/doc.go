/*
Package category defines the type system of the resource model: Kinds,
Mixins, Actions and the attribute descriptors they carry.

Every definition is identified by a Category, the pairing of a scheme
URI and a term:

	http://schemas.ogf.org/occi/infrastructure#network
	\_______________ scheme ________________/\_term_/

The scheme always ends with '#'. Scheme plus term is the identity key
under which a definition is registered and looked up.

# Definitions

A Kind describes a resource type. Kinds form a forest through the
parent reference: a Kind inherits the attributes and actions of every
ancestor. A Mixin describes an optional trait that can be attached to
an entity at runtime, contributing further attributes and actions. An
Action describes an invocable operation with its own attribute
descriptors for invocation parameters.

# Attributes

An attribute descriptor names a typed field:

	occi.network.vlan:
	  type: number
	  mutable: true
	  range: {min: 0, max: 4095}

Supported types are string, number and boolean. Numbers are carried as
float64. A descriptor can further constrain the field:

	mutable  - writable after the entity has been created
	required - must hold a non-default value before submission
	unique   - no two entities of the same kind may share the value
	default  - applied when the entity is bound to the category
	range    - inclusive numeric bounds, number type only

# Merged schemas

The attribute surface visible on an entity is a Schema: the union of
the entity's Kind, all its ancestors and every attached Mixin. Two
sources may declare the same attribute name only if their descriptors
agree field for field; any disagreement is a SchemaConflictError. The
union is therefore independent of attachment order.

# Catalogue files

Definitions are declared in YAML documents:

	kinds:
	  - term: network
	    scheme: "http://schemas.ogf.org/occi/infrastructure#"
	    title: Network Resource
	    parent: "http://schemas.ogf.org/occi/core#resource"
	    attributes:
	      occi.network.label: {type: string, mutable: true}
	    actions:
	      - term: up
	        scheme: "http://schemas.ogf.org/occi/infrastructure/network/action#"

	mixins:
	  - term: ipnetwork
	    scheme: "http://schemas.ogf.org/occi/infrastructure#"
	    attributes:
	      occi.network.address: {type: string, mutable: true}

Parse reads such a document; Document.Resolve links parent and
dependency references, accepting forward references within the
document and falling back to a Resolver for definitions registered
elsewhere. The embedded builtin catalogue (Builtin) provides the core
and infrastructure definitions every deployment starts from.
*/
package category
