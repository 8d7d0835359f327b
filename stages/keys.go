package stages

// State store keys shared between the built-in stages.
const (
	// KeyUsername is the developer's GitHub username.
	KeyUsername = "username"
	// KeyRepo is the repository being analyzed, "name" or "owner/name".
	KeyRepo = "repo"
	// KeyRawSkillVector is the free-form analysis text produced by AnalyzeRepo.
	KeyRawSkillVector = "raw_skill_vector"
	// KeySkillVector is the structured skillvec.SkillVector produced by
	// StructureOutput.
	KeySkillVector = "skill_vector"
	// KeySkillVectorOutput is the rendered summary produced by RenderSummary.
	KeySkillVectorOutput = "skill_vector_output"
)
