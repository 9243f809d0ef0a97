package answer

import (
	"fmt"
	"strings"

	"github.com/pantrychef-io/pantrychef/internal/domain/recipe"
)

const chefPromptTemplate = `You are an expert chef and culinary assistant. Answer the QUESTION based on the CONTEXT from our recipe database.
Use only the facts from the CONTEXT when answering the QUESTION.

QUESTION: %s

CONTEXT:
%s`

const entryTemplate = `Recipe: %s
Cuisine: %s
Meal Type: %s
Difficulty: %s
Prep Time: %s minutes
Cook Time: %s minutes
Main Ingredients: %s
Instructions: %s
Dietary Info: %s`

const evaluationPromptTemplate = `You are an expert evaluator for a RAG system.
Your task is to analyze the relevance of the generated answer to the given question.
Based on the relevance of the generated answer, you will classify it
as "NON_RELEVANT", "PARTLY_RELEVANT", or "RELEVANT".

Here is the data for evaluation:

Question: %s
Generated Answer: %s

Please analyze the content and context of the generated answer in relation to the question
and provide your evaluation in parsable JSON without using code blocks:

{
  "Relevance": "NON_RELEVANT" | "PARTLY_RELEVANT" | "RELEVANT",
  "Explanation": "[Provide a brief explanation for your evaluation]"
}`

// buildAnswerPrompt formats the retrieved recipes into the chef prompt.
func buildAnswerPrompt(question string, recipes []recipe.Recipe) string {
	entries := make([]string, 0, len(recipes))
	for _, r := range recipes {
		entries = append(entries, fmt.Sprintf(entryTemplate,
			r.Name, r.CuisineType, r.MealType, r.Difficulty,
			minutesOrUnknown(r.PrepMinutes), minutesOrUnknown(r.CookMinutes),
			r.MainIngredients, r.Instructions, r.DietaryRestrictions))
	}
	return fmt.Sprintf(chefPromptTemplate, question, strings.Join(entries, "\n\n"))
}

func buildEvaluationPrompt(question, answer string) string {
	return fmt.Sprintf(evaluationPromptTemplate, question, answer)
}

func minutesOrUnknown(m *int) string {
	if m == nil {
		return "unknown"
	}
	return fmt.Sprintf("%d", *m)
}
