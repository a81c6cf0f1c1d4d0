// Package translation renders prompts for subtitle translation and
// normalizes what the model sends back.
//
// Standard templates substitute {text}. Contextual templates also receive
// {context}, a window of neighbouring source lines with the current line
// marked by ">> ". Both may use {language} for the target language name.
package translation
