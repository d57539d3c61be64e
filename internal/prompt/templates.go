package prompt

import "repowiki/internal/classify"

// The template table: one base template per stage plus taxonomy-specific
// variants. Slots used across the table: {structure} (serialized catalog),
// {code} (file content), {path}, {project_info}.

var base = map[Stage]Template{
	StageCatalogAnalysis: {
		Name: "catalog_analysis/base",
		Text: `You are a senior software architect.
Analyze the repository structure below and describe the purpose of each
top-level directory and notable file. Be concise and factual.

[PROJECT]
{project_info}

[STRUCTURE]
{structure}`,
	},
	StageDocumentGeneration: {
		Name: "document_generation/base",
		Text: `You are a technical writer documenting a source repository.
Write reference documentation for the file at {path}. Explain what it does,
its public surface, and how it fits into the project structure.

[PROJECT]
{project_info}

[STRUCTURE]
{structure}

[CODE]
{code}`,
	},
	StageProjectOverview: {
		Name: "project_overview/base",
		Text: `You are a senior software architect.
Write a project overview for the repository described below: goals,
architecture, key components, and how to get started.

[PROJECT]
{project_info}

[STRUCTURE]
{structure}`,
	},
}

var specialized = map[Stage]map[classify.Taxonomy]Template{
	StageCatalogAnalysis: {
		classify.TaxonomyFramework: {
			Name: "catalog_analysis/framework",
			Text: `You are a senior software architect reviewing a framework.
Analyze the structure below with attention to extension points, plugin
surfaces, and the lifecycle the framework imposes on its users.

[PROJECT]
{project_info}

[STRUCTURE]
{structure}`,
		},
		classify.TaxonomyCLITool: {
			Name: "catalog_analysis/cli_tool",
			Text: `You are a senior software architect reviewing a command-line tool.
Analyze the structure below with attention to command definitions, flag
parsing, and the execution entry points.

[PROJECT]
{project_info}

[STRUCTURE]
{structure}`,
		},
	},
	StageDocumentGeneration: {
		classify.TaxonomyCLITool: {
			Name: "document_generation/cli_tool",
			Text: `You are documenting a command-line tool.
Write reference documentation for the file at {path}. Cover the commands,
flags, and exit behavior it contributes, with usage examples.

[PROJECT]
{project_info}

[STRUCTURE]
{structure}

[CODE]
{code}`,
		},
		classify.TaxonomyFramework: {
			Name: "document_generation/framework",
			Text: `You are documenting a framework.
Write reference documentation for the file at {path}. Cover the hooks and
extension points it exposes and how user code is expected to plug in.

[PROJECT]
{project_info}

[STRUCTURE]
{structure}

[CODE]
{code}`,
		},
		classify.TaxonomyApplication: {
			Name: "document_generation/application",
			Text: `You are documenting an application.
Write reference documentation for the file at {path}. Cover the feature it
implements, the user-facing behavior, and its runtime dependencies.

[PROJECT]
{project_info}

[STRUCTURE]
{structure}

[CODE]
{code}`,
		},
	},
	StageProjectOverview: {
		classify.TaxonomyCLITool: {
			Name: "project_overview/cli_tool",
			Text: `You are a senior software architect.
Write a project overview for this command-line tool: what it does, its
command set, installation, and typical workflows.

[PROJECT]
{project_info}

[STRUCTURE]
{structure}`,
		},
		classify.TaxonomyLibrary: {
			Name: "project_overview/library",
			Text: `You are a senior software architect.
Write a project overview for this library: the problem it solves, its public
API surface, and integration examples.

[PROJECT]
{project_info}

[STRUCTURE]
{structure}`,
		},
	},
}
