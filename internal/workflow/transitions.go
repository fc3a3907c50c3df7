package workflow

import "github.com/ritik9294/catalog-assistant-v3/internal/session"

// Successors is the closed transition relation of the workflow. Every
// step change the engine performs is checked against it; staying on the
// same step is always legal and not listed.
var Successors = map[session.Step][]session.Step{
	session.StepInitial: {
		session.StepIdentifyProducts,
	},
	session.StepIdentifyProducts: {
		session.StepQualityCheck,
		session.StepConfirmProduct,
		session.StepProductNotFoundFail,
	},
	session.StepProductNotFoundFail: {
		session.StepIdentifyProducts,
	},
	session.StepConfirmProduct: {
		session.StepExtractSelectedProduct,
		session.StepProductNotListedFail,
	},
	session.StepProductNotListedFail: {
		session.StepIdentifyProducts,
	},
	session.StepExtractSelectedProduct: {
		session.StepQualityCheck,
	},
	session.StepQualityCheck: {
		session.StepOfferEnhancement,
		session.StepConfirmSourceImage,
		session.StepQualityFail,
	},
	session.StepQualityFail: {
		session.StepIdentifyProducts,
	},
	session.StepOfferEnhancement: {
		session.StepPerformEnhancement,
	},
	session.StepPerformEnhancement: {
		session.StepConfirmEnhancement,
		session.StepQualityFail,
	},
	session.StepConfirmEnhancement: {
		session.StepPromptForModelNumber,
		session.StepGetAPIKeywords,
	},
	session.StepConfirmSourceImage: {
		session.StepPromptForModelNumber,
		session.StepGetAPIKeywords,
	},
	session.StepGetAPIKeywords: {
		session.StepSelectBestKeyword,
	},
	session.StepSelectBestKeyword: {
		session.StepGetDBSpecs,
	},
	session.StepGetDBSpecs: {
		session.StepAskUser,
		session.StepPromptForModelNumber,
		session.StepAskCustomizationYesNo,
	},
	session.StepAskUser: {
		session.StepAskCustomizationYesNo,
	},
	session.StepPromptForModelNumber: {
		session.StepCollectModelNumber,
		session.StepAskBrandedSKUQuestions,
	},
	session.StepCollectModelNumber: {
		session.StepValidateModelNumber,
	},
	session.StepValidateModelNumber: {
		session.StepAskCustomizationYesNo,
		session.StepPromptForModelNumber,
	},
	session.StepAskBrandedSKUQuestions: {
		session.StepCollectBrandedSKUAnswer,
		session.StepAskCustomizationYesNo,
	},
	session.StepCollectBrandedSKUAnswer: {
		session.StepAskCustomizationYesNo,
	},
	session.StepAskCustomizationYesNo: {
		session.StepAskCustomizationDetails,
		session.StepGenerateListing,
	},
	session.StepAskCustomizationDetails: {
		session.StepGenerateListing,
	},
	session.StepGenerateListing: {
		session.StepConfirmSingleProduct,
		session.StepDisplayAllResults,
		session.StepDisplayResults,
	},
	session.StepConfirmSingleProduct: {
		session.StepExtractSelectedProduct,
		session.StepDisplayAllResults,
	},
	session.StepDisplayResults:    {},
	session.StepDisplayAllResults: {},
}

// CanTransition reports whether moving from one step to another is
// listed in Successors. A Reset to the initial step is always allowed.
func CanTransition(from, to session.Step) bool {
	if from == to {
		return true
	}
	if to == session.StepInitial {
		return true
	}
	for _, s := range Successors[from] {
		if s == to {
			return true
		}
	}
	return false
}
